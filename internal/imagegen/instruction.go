package imagegen

import (
	"fmt"
	"regexp"
	"strings"
)

// technicalTokens pins the output geometry the grid pipeline depends on: the
// #00FF00 chroma key, the 4x4 layout and visible gutters between cells.
const technicalTokens = "High-resolution professional art, sharp clean outlines, no die-cut border, no white outline, " +
	"no green spill on character edges, solid #00FF00 green background for transparency, 4x4 grid layout, " +
	"16 distinct poses, consistent character design, center-aligned characters, LINE sticker compliant style, " +
	"safe margin in every cell, 2K generation quality. " +
	"Add clear #00FF00 gutters between cells (12–16px). No elements may cross cell boundaries. " +
	"Each sticker must be fully contained inside its own cell."

// defaultThaiCaptions is the caption set applied when the user does not opt
// out of text.
var defaultThaiCaptions = []string{
	"สวัสดี",
	"ขอบคุณนะ",
	"โอเค",
	"สู้ๆ นะ",
	"ขอโทษนะ",
	"เย้!",
	"ยุ่งอยู่",
	"รักนะ",
	"งอนแล้ว",
	"ตกใจเลย",
	"คิดแป๊บ",
	"ฝันดีนะ",
	"หิวแล้ว",
	"รอก่อน",
	"รับทราบ",
	"ไปก่อนนะ",
}

// noTextPattern detects an explicit opt-out of captions, in English or Thai.
var noTextPattern = regexp.MustCompile(`(?i)(no text|without text|no caption|ไม่มีข้อความ|ไม่ต้องมีข้อความ|ไม่มีแคปชัน)`)

const defaultLikeness = "Maintain subject identity faithfully."

// BuildInstruction assembles the complete rendering instruction for one
// sticker sheet. locale steers the caption language; Thai is the default and
// carries the full glyph-integrity rules.
func BuildInstruction(style Style, extraPrompt, locale string) string {
	extra := strings.TrimSpace(extraPrompt)
	likeness := extra
	if likeness == "" {
		likeness = defaultLikeness
	}

	return strings.TrimSpace(fmt.Sprintf(
		"%s\nObjective: Create a professional 16-pose sticker sheet (4 columns x 4 rows) based on the uploaded photo.\n%s\n%s\nCharacter Likeness: %s\nCharacter should be positioned clearly in each grid cell.",
		technicalTokens,
		style.Prompt,
		captionInstruction(extra, locale),
		likeness,
	))
}

// captionInstruction returns the caption block for the locale, or a bare
// no-captions directive when the prompt opts out.
func captionInstruction(extraPrompt, locale string) string {
	if extraPrompt != "" && noTextPattern.MatchString(extraPrompt) {
		return "Generate stickers without any text captions."
	}
	tag := strings.ToLower(strings.TrimSpace(locale))
	if tag != "" && tag != "th" && !strings.HasPrefix(tag, "th-") {
		return "MANDATORY TEXT CAPTIONS:\n" +
			"- Add one short caption per sticker in the language with BCP 47 tag \"" + tag + "\" (greetings, thanks, cheering, everyday chat phrases).\n" +
			"- Place caption at bottom-center of each cell, clearly separated from face/hands.\n" +
			"- Text render: solid black letters with thick white outline and soft shadow for high readability.\n" +
			"- Keep caption large and readable in chat size, but do not clip text at cell edges."
	}
	return "MANDATORY TEXT CAPTIONS:\n" +
		"- Add one short Thai caption per sticker using this set: " + strings.Join(defaultThaiCaptions, ", ") + ".\n" +
		"- Place caption at bottom-center of each cell, clearly separated from face/hands.\n" +
		"- Typography style: Google Fonts look (Kanit ExtraBold or Noto Sans Thai Black style).\n" +
		"- Text render: solid black letters with thick white outline and soft shadow for high readability.\n" +
		"- Keep caption large and readable in chat size, but do not clip text at cell edges.\n" +
		"- Thai glyph integrity is mandatory: all vowels/diacritics/tonemarks must remain complete and visible " +
		"(e.g. ุ ู ิ ี ึ ื ่ ้ ๊ ๋ ์).\n" +
		"- Do not drop, merge, crop, or distort any Thai marks; spelling must be exactly correct.\n" +
		"- Keep extra vertical safety above/below text so lower vowels and upper tone marks are never cut.\n" +
		"- Outline must stay outside glyph strokes and must not cover interior Thai marks."
}
