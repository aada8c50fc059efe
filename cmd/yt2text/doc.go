// Command yt2text turns YouTube videos into formatted Markdown transcripts.
//
// "yt2text run" processes a video, channel or playlist in the foreground.
// "yt2text submit" queues videos for "yt2text serve", which runs the queue
// worker and the HTTP API. The queue subcommands inspect and repair the
// SQLite task store directly, so they work whether or not the daemon runs.
package main
