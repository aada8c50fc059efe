// Package ytdlp downloads source audio through yt-dlp, driven by the
// go-ytdlp command builder.
//
// Failures are returned as *DownloadError with a FailureKind read from
// stderr (members-only, private, unavailable) and a FriendlyMessage for the
// queue. The configured cookies browser is passed to every invocation.
package ytdlp
