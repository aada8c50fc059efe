package language

import "strings"

type entry struct {
	code2   string   // ISO 639-1
	code3   string   // ISO 639-2
	display string   // English name
	words   []string // accepted spellings, including native names
}

var languages = []entry{
	{"zh", "zho", "Chinese", []string{"chinese", "mandarin", "中文", "汉语", "普通话", "zh-cn", "zh-tw", "zh-hans", "zh-hant", "chi"}},
	{"yue", "yue", "Cantonese", []string{"cantonese", "粤语", "廣東話"}},
	{"en", "eng", "English", []string{"english", "en-us", "en-gb"}},
	{"ja", "jpn", "Japanese", []string{"japanese", "日本語"}},
	{"ko", "kor", "Korean", []string{"korean", "한국어"}},
	{"es", "spa", "Spanish", []string{"spanish", "español"}},
	{"fr", "fra", "French", []string{"french", "français", "fre"}},
	{"de", "deu", "German", []string{"german", "deutsch", "ger"}},
	{"ru", "rus", "Russian", []string{"russian", "русский"}},
	{"pt", "por", "Portuguese", []string{"portuguese", "português"}},
	{"it", "ita", "Italian", []string{"italian"}},
	{"vi", "vie", "Vietnamese", []string{"vietnamese", "tiếng việt"}},
	{"th", "tha", "Thai", []string{"thai"}},
	{"ar", "ara", "Arabic", []string{"arabic"}},
	{"hi", "hin", "Hindi", []string{"hindi"}},
}

var byName map[string]*entry

func init() {
	byName = make(map[string]*entry, len(languages)*4)
	for i := range languages {
		e := &languages[i]
		byName[e.code2] = e
		byName[e.code3] = e
		for _, w := range e.words {
			byName[w] = e
		}
	}
}

func lookup(code string) *entry {
	code = strings.ToLower(strings.TrimSpace(code))
	if code == "" {
		return nil
	}
	return byName[code]
}

// ToISO2 converts a recognized language code or name to the code WhisperX
// accepts. Unknown 2-letter codes pass through; anything else yields "".
func ToISO2(code string) string {
	code = strings.ToLower(strings.TrimSpace(code))
	if code == "" {
		return ""
	}
	if e := lookup(code); e != nil {
		return e.code2
	}
	if len(code) == 2 {
		return code
	}
	return ""
}

// DisplayName returns a human-readable language name for any recognized code.
func DisplayName(code string) string {
	if strings.TrimSpace(code) == "" {
		return "Unknown"
	}
	if e := lookup(code); e != nil {
		return e.display
	}
	return strings.ToUpper(strings.TrimSpace(code))
}

// IsChinese reports whether code refers to a Chinese variety. Paragraph
// prompts add traditional to simplified conversion for these.
func IsChinese(code string) bool {
	switch ToISO2(code) {
	case "zh", "yue":
		return true
	}
	return false
}
