package logger

import "github.com/ideamans/go-l10n"

func init() {
	l10n.Register("ja", l10n.LexiconMap{
		// Player lifecycle (info)
		"Opened %s video stream %d (%dx%d)":              "%s 映像ストリーム %d を開きました (%dx%d)",
		"Opened %s audio stream %d (%d Hz, %d channels)": "%s 音声ストリーム %d を開きました (%d Hz, %d チャンネル)",
		"Playback started":                               "再生を開始しました",
		"Playback stopped":                               "再生を停止しました",
		"Switched to %s audio stream %d":                 "%s 音声ストリーム %d に切り替えました",

		// Pump
		"End of input":                             "入力の終端に達しました",
		"Skipping packet of stream %d":             "ストリーム %d のパケットをスキップします",
		"Dropped %d %s frames: %v":                 "%d 個の %s フレームを破棄しました: %v",
		"Failed to decode %s packet at pts %d: %v": "%s パケット (pts %d) のデコードに失敗しました: %v",
		"Failed to drain video decoder: %v":        "映像デコーダの排出に失敗しました: %v",
		"Failed to drain audio decoder: %v":        "音声デコーダの排出に失敗しました: %v",
		"Failed to read packet: %v":                "パケットの読み込みに失敗しました: %v",

		// Seek
		"Seeking %s from pts %d to pts %d":                            "%s シーク中 (pts %d → pts %d)",
		"Seek to pts %d failed, continuing from current position: %v": "pts %d へのシークに失敗しました。現在位置から続行します: %v",
		"Failed to flush video decoder: %v":                           "映像デコーダのフラッシュに失敗しました: %v",
		"Failed to flush audio decoder: %v":                           "音声デコーダのフラッシュに失敗しました: %v",
		"Seek done, %d buffered frames discarded":                     "シーク完了、バッファ済みフレーム %d 個を破棄しました",

		// Shutdown and audio switching (warnings)
		"Failed to close video decoder: %v":                     "映像デコーダのクローズに失敗しました: %v",
		"Failed to close audio decoder: %v":                     "音声デコーダのクローズに失敗しました: %v",
		"Failed to close container: %v":                         "コンテナのクローズに失敗しました: %v",
		"Failed to open audio stream %d, keeping stream %d: %v": "音声ストリーム %d を開けませんでした。ストリーム %d を継続します: %v",
		"Queue depth gauge unavailable: %v":                     "キュー深度ゲージを利用できません: %v",

		// Adapters (debug)
		"Track %d: %s %s, %d samples":                          "トラック %d: %s %s, %d サンプル",
		"Seeked stream %d to sample %d (pts %d) for target %d": "ストリーム %d をサンプル %d (pts %d) に移動しました (目標 %d)",
		"Started ffmpeg for %s stream %d":                      "%s ストリーム %d の ffmpeg を起動しました",
		"Discarded %d bytes of partial picture":                "不完全な画像 %d バイトを破棄しました",
		"Decoding %s stream %d with %s":                        "%s ストリーム %d を %s でデコードします",
		"AV1 frame size changed to %dx%d":                      "AV1 フレームサイズが %dx%d に変わりました",
	})
}
