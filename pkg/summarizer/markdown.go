package summarizer

import (
	"fmt"
	"strings"
	"time"
)

// MarkdownFormatter renders a Summary as a Markdown document.
type MarkdownFormatter struct {
	translate func(string) string
	version   string
}

// MarkdownOption configures a MarkdownFormatter.
type MarkdownOption func(*MarkdownFormatter)

// WithTranslator sets the function used to translate labels.
func WithTranslator(fn func(string) string) MarkdownOption {
	return func(f *MarkdownFormatter) {
		f.translate = fn
	}
}

// WithVersion sets the version shown in the footer.
func WithVersion(version string) MarkdownOption {
	return func(f *MarkdownFormatter) {
		f.version = version
	}
}

// NewMarkdownFormatter creates a formatter. Labels are left untranslated
// unless WithTranslator is given.
func NewMarkdownFormatter(opts ...MarkdownOption) *MarkdownFormatter {
	f := &MarkdownFormatter{
		translate: func(s string) string { return s },
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Format implements Formatter.
func (f *MarkdownFormatter) Format(s *Summary) string {
	t := f.translate
	var b strings.Builder

	fmt.Fprintf(&b, "# %s\n\n", t("Playback Summary"))
	fmt.Fprintf(&b, "%s: %s\n\n", t("Generated"), s.GeneratedAt.Format(time.RFC3339))

	// Source
	fmt.Fprintf(&b, "## %s\n\n", t("Source"))
	f.header(&b)
	f.row(&b, t("File"), s.Source.Path)
	if s.Source.Size > 0 {
		f.row(&b, t("File Size"), formatBytes(s.Source.Size))
	}
	b.WriteString("\n")

	if len(s.Source.Streams) > 0 {
		fmt.Fprintf(&b, "## %s\n\n", t("Streams"))
		fmt.Fprintf(&b, "| # | %s | %s | %s | %s | %s |\n", t("Media"), t("Codec"), t("Format"), t("Duration"), t("Decoder"))
		b.WriteString("|---|---|---|---|---|---|\n")
		for _, st := range s.Source.Streams {
			index := fmt.Sprintf("%d", st.Index)
			if st.Selected {
				index += " *"
			}
			fmt.Fprintf(&b, "| %s | %s | %s | %s | %s | %s |\n",
				index, st.Media, st.Codec, streamFormat(st), formatMs(st.DurationMs), st.Decoder)
		}
		b.WriteString("\n")
	}

	// Playback
	p := s.Playback
	fmt.Fprintf(&b, "## %s\n\n", t("Results"))
	f.header(&b)
	f.row(&b, t("Elapsed"), p.Elapsed.Round(time.Millisecond).String())
	if p.Interrupted {
		f.row(&b, t("Interrupted"), t("Yes"))
	}
	if s.Settings.DecodeVideo {
		f.row(&b, t("Video Frames"), fmt.Sprintf("%d", p.VideoFrames))
		f.row(&b, t("Last Video Frame"), formatMs(p.VideoEndMs))
	}
	if s.Settings.DecodeAudio {
		f.row(&b, t("Audio Blocks"), fmt.Sprintf("%d (%s)", p.AudioBlocks, formatBytes(p.AudioBytes)))
	}
	f.row(&b, t("Late Drops"), fmt.Sprintf("%d", p.LateDrops))
	f.row(&b, t("Seek Drops"), fmt.Sprintf("%d", p.SeekDrops))
	f.row(&b, t("Seeks"), fmt.Sprintf("%d", p.Seeks))
	f.row(&b, t("Decode Errors"), fmt.Sprintf("%d", p.DecodeErrors))
	b.WriteString("\n")

	// Settings
	st := s.Settings
	fmt.Fprintf(&b, "## %s\n\n", t("Settings"))
	f.header(&b)
	f.row(&b, t("Video"), f.onOff(st.DecodeVideo))
	f.row(&b, t("Audio"), f.onOff(st.DecodeAudio))
	f.row(&b, t("Sync"), f.onOff(st.Sync))
	if st.QueueCapacity > 0 {
		f.row(&b, t("Queue Capacity"), fmt.Sprintf("%d", st.QueueCapacity))
	}
	if st.LateThreshold > 0 {
		f.row(&b, t("Late Threshold"), fmt.Sprintf("%d ms", st.LateThreshold.Milliseconds()))
	}
	if st.SampleFormat != "" {
		f.row(&b, t("Sample Format"), st.SampleFormat)
	}
	if len(st.Seeks) > 0 {
		f.row(&b, t("Scheduled Seeks"), strings.Join(st.Seeks, ", "))
	}
	b.WriteString("\n")

	b.WriteString("---\n\n")
	if f.version != "" {
		fmt.Fprintf(&b, "%s mediapump %s\n", t("Generated by"), f.version)
	} else {
		fmt.Fprintf(&b, "%s mediapump\n", t("Generated by"))
	}
	return b.String()
}

func (f *MarkdownFormatter) header(b *strings.Builder) {
	fmt.Fprintf(b, "| %s | %s |\n", f.translate("Item"), f.translate("Value"))
	b.WriteString("|---|---|\n")
}

func (f *MarkdownFormatter) row(b *strings.Builder, item, value string) {
	fmt.Fprintf(b, "| %s | %s |\n", item, value)
}

func (f *MarkdownFormatter) onOff(v bool) string {
	if v {
		return f.translate("On")
	}
	return f.translate("Off")
}

func streamFormat(s StreamInfo) string {
	switch s.Media {
	case "video":
		return fmt.Sprintf("%dx%d", s.Width, s.Height)
	case "audio":
		return fmt.Sprintf("%d Hz, %d ch", s.SampleRate, s.Channels)
	default:
		return "-"
	}
}

func formatMs(ms int) string {
	if ms < 0 {
		return "-"
	}
	return fmt.Sprintf("%d ms", ms)
}

// formatBytes renders a size with binary units.
func formatBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for v := n / unit; v >= unit && exp < 2; v /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.2f %s", float64(n)/float64(div), []string{"KB", "MB", "GB"}[exp])
}

var _ Formatter = (*MarkdownFormatter)(nil)
