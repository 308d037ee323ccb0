package subtitles

import (
	"fmt"
	"strings"

	"github.com/forPelevin/hlshorts/internal/types"
)

// Style is the fixed burn-in look: white fill, black outline, bottom-center.
type Style struct {
	FontName string
	FontSize int
	Outline  int
	MarginV  int
}

func DefaultStyle() Style {
	return Style{FontName: "Arial", FontSize: 24, Outline: 2, MarginV: 60}
}

// ForceStyle is the value for the ffmpeg subtitles filter force_style option
// when burning an SRT track.
func (s Style) ForceStyle() string {
	s = s.withDefaults()
	return fmt.Sprintf(
		"FontName=%s,FontSize=%d,PrimaryColour=&H00FFFFFF,OutlineColour=&H00000000,BorderStyle=1,Outline=%d,Shadow=0,Alignment=2,MarginV=%d",
		s.FontName, s.FontSize, s.Outline, s.MarginV,
	)
}

func (s Style) withDefaults() Style {
	d := DefaultStyle()
	if strings.TrimSpace(s.FontName) == "" {
		s.FontName = d.FontName
	}
	if s.FontSize <= 0 {
		s.FontSize = d.FontSize
	}
	if s.Outline < 0 {
		s.Outline = d.Outline
	}
	if s.MarginV <= 0 {
		s.MarginV = d.MarginV
	}
	return s
}

// RenderASS renders cues as an ASS script with the style embedded, so the
// burner needs no force_style override.
func RenderASS(cues []types.CaptionCue, st Style) string {
	st = st.withDefaults()
	var b strings.Builder
	b.WriteString(assHeader(st))
	b.WriteString("\n\n[Events]\n")
	b.WriteString("Format: Layer, Start, End, Style, Name, MarginL, MarginR, MarginV, Effect, Text\n")
	for _, c := range cues {
		b.WriteString("Dialogue: 0,")
		b.WriteString(assTime(c.Start))
		b.WriteString(",")
		b.WriteString(assTime(c.End))
		b.WriteString(",Short,,0,0,0,,")
		b.WriteString(sanitizeASS(c.Text))
		b.WriteString("\n")
	}
	return b.String()
}

// ASS style fonts are sized against PlayResY; SRT force_style sizes are
// against the libass default of 288, hence the scale factor.
func assHeader(st Style) string {
	scale := types.FrameHeight / 288
	return strings.TrimSpace(fmt.Sprintf(`
[Script Info]
ScriptType: v4.00+
PlayResX: %d
PlayResY: %d
ScaledBorderAndShadow: yes

[V4+ Styles]
Format: Name, Fontname, Fontsize, PrimaryColour, SecondaryColour, OutlineColour, BackColour, Bold, Italic, Underline, StrikeOut, ScaleX, ScaleY, Spacing, Angle, BorderStyle, Outline, Shadow, Alignment, MarginL, MarginR, MarginV, Encoding
Style: Short, %s, %d, &H00FFFFFF, &H00FFFFFF, &H00000000, &H00000000, 0,0,0,0,100,100,0,0,1,%d,0,2, 60,60,%d,1
`, types.FrameWidth, types.FrameHeight, st.FontName, st.FontSize*scale, st.Outline*scale, st.MarginV*scale))
}

func assTime(sec float64) string {
	ms := totalMillis(sec)
	hs := ms / 3_600_000
	ms -= hs * 3_600_000
	m := ms / 60_000
	ms -= m * 60_000
	s := ms / 1000
	ms -= s * 1000
	return fmt.Sprintf("%d:%02d:%02d.%02d", hs, m, s, ms/10)
}

func sanitizeASS(s string) string {
	s = strings.ReplaceAll(s, "\\", "\\\\")
	s = strings.ReplaceAll(s, "{", "(")
	s = strings.ReplaceAll(s, "}", ")")
	s = strings.ReplaceAll(s, "\n", "\\N")
	return strings.TrimSpace(s)
}
