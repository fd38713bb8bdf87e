// Package main provides localization for the mediapump CLI.
package main

import (
	"github.com/ideamans/go-l10n"
)

func init() {
	// Register Japanese translations for CLI messages.
	l10n.Register("ja", l10n.LexiconMap{
		// Flag categories
		"Output":        "出力",
		"Configuration": "設定",
		"Decoding":      "デコード",
		"Playback":      "再生",
		"Telemetry":     "テレメトリ",
		"Logging":       "ログ",

		// Root command
		"Decode and pace audio and video from media files":                                                    "メディアファイルの音声と映像をデコードして再生タイミングを制御",
		"mediapump demuxes a media file, decodes its streams and delivers frames on a shared playback clock.": "mediapumpはメディアファイルを分離・デコードし、共通の再生クロックに合わせてフレームを届けます。",

		// Play command
		"Decode a media file and deliver paced frames": "メディアファイルをデコードしてフレームを再生タイミングで配信",
		"Decode the first video stream and the selected audio stream of a media file, pace the frames against the playback clock and print a summary.": "メディアファイルの最初の映像ストリームと選択した音声ストリームをデコードし、再生クロックに合わせてフレームを配信してサマリーを表示します。",

		// Probe command
		"List the streams of a media file":                                  "メディアファイルのストリームを一覧表示",
		"List the streams of a media file with the decoder each would use.": "メディアファイルのストリームと使用されるデコーダを一覧表示します。",
		"decoder: %s": "デコーダ: %s",

		// Version command
		"Show version information":          "バージョン情報を表示",
		"Display the version of mediapump.": "mediapumpのバージョンを表示します。",
		"mediapump version %s":              "mediapump バージョン %s",

		// Flags
		"YAML configuration file":                                     "YAML設定ファイル",
		"Do not decode video":                                         "映像をデコードしない",
		"Do not decode audio":                                         "音声をデコードしない",
		"Deliver frames as fast as they are decoded":                  "デコードしたフレームを待たずに配信",
		"Position of the audio stream to play (0 = first)":            "再生する音声ストリームの位置（0 = 最初）",
		"Seek by DELTA after AT of playback, e.g. 5s@2s (repeatable)": "再生開始から AT 経過後に DELTA だけシーク（例: 5s@2s、複数指定可）",
		"Stop playback after this long (0 = play to the end)":         "指定時間後に再生を停止（0 = 最後まで再生）",
		"Path to ffmpeg executable":                                   "ffmpeg実行ファイルのパス",
		"Serve Prometheus metrics on this address, e.g. :9090":        "このアドレスでPrometheusメトリクスを公開（例: :9090）",
		"Log level (debug, info, warn, error)":                        "ログレベル（debug, info, warn, error）",
		"Suppress all log output":                                     "全てのログ出力を抑制",
		"Prefix log lines with the time of day":                       "ログ行の先頭に時刻を付加",

		"Write a Markdown playback summary to this file (- for stdout)": "Markdown形式の再生サマリーをファイルに出力（- で標準出力）",

		// Runtime messages
		"Summary saved to %s":           "サマリーを %s に保存しました",
		"Failed to write summary: %v":   "サマリーの書き込みに失敗しました: %v",
		"Playing %s":                    "%s を再生中",
		"Serving metrics on %s/metrics": "%s/metrics でメトリクスを公開中",
		"Metrics server failed: %v":     "メトリクスサーバーが失敗しました: %v",
		"Interrupted, shutting down...": "中断されました。シャットダウン中...",

		// Error messages
		"FILE argument is required": "FILE引数が必要です",
		"Error: %s":                 "エラー: %s",

		// Summary content
		"Playback Summary": "再生サマリー",
		"Elapsed":          "経過時間",
		"Video Size":       "映像サイズ",
		"Video Frames":     "映像フレーム数",
		"Audio Blocks":     "音声ブロック数",
		"Late Drops":       "遅延破棄",
		"Seek Drops":       "シーク破棄",
		"Seeks":            "シーク回数",
		"Decode Errors":    "デコードエラー",
		"Disabled":         "無効",

		// Markdown summary
		"Generated":        "生成日時",
		"Source":           "入力",
		"File":             "ファイル",
		"File Size":        "ファイルサイズ",
		"Streams":          "ストリーム",
		"Media":            "種類",
		"Codec":            "コーデック",
		"Format":           "形式",
		"Duration":         "長さ",
		"Decoder":          "デコーダ",
		"Results":          "実行結果",
		"Interrupted":      "中断",
		"Yes":              "はい",
		"Last Video Frame": "最終映像フレーム",
		"Settings":         "設定",
		"Video":            "映像",
		"Audio":            "音声",
		"Sync":             "同期",
		"Queue Capacity":   "キュー容量",
		"Late Threshold":   "遅延しきい値",
		"Sample Format":    "サンプル形式",
		"Scheduled Seeks":  "予定シーク",
		"On":               "有効",
		"Off":              "無効",
		"Item":             "項目",
		"Value":            "値",
		"Generated by":     "生成:",
	})
}
