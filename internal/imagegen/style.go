// Package imagegen turns user intent into the exact rendering instruction
// sent to the sheet providers.
package imagegen

import (
	"strings"

	"stickerline/internal/domain"
)

// Style is one of the locked-down sticker art directions. Prompt carries the
// full art-direction block fed verbatim to the model.
type Style struct {
	ID     string
	Label  string
	Prompt string
}

var styles = map[string]Style{
	"chibi_2d": {
		ID:     "chibi_2d",
		Label:  "2D Chibi",
		Prompt: "Art Style: Premium 2D Chibi, bold black outlines, vibrant flat colors.",
	},
	"pixar_3d": {
		ID:    "pixar_3d",
		Label: "3D Pixar",
		Prompt: "Art Style: Cute premium 3D character (Pixar-like sticker quality, original character only).\n" +
			"- Chibi proportion: larger head with smaller body, rounded cheeks, expressive eyes, friendly facial features.\n" +
			"- Hair should be sculpted in soft chunky strands with clean volume, not realistic thin strands.\n" +
			"- Lighting: warm cinematic key light + soft rim light, smooth gradients, polished but readable at small size.\n" +
			"- Expression quality: exaggerated and clear for chat usage (smile, laugh, wink, thinking, shocked, etc.).\n" +
			"- Framing rule: keep full face/head/hands inside each cell with safe margins; no cropped forehead/chin.\n" +
			"- Render as sticker-ready subject with clean silhouette and no messy artifacts.",
	},
}

var styleAliases = map[string]string{
	"chibi-2d": "chibi_2d",
	"chibi 2d": "chibi_2d",
	"chibi2d":  "chibi_2d",
	"2d":       "chibi_2d",
	"pixar-3d": "pixar_3d",
	"pixar 3d": "pixar_3d",
	"pixar3d":  "pixar_3d",
	"3d":       "pixar_3d",
}

// ResolveStyle maps user input onto a supported style. Unknown identifiers
// are rejected rather than silently defaulted so billing never happens for a
// style the model cannot render.
func ResolveStyle(id string) (Style, error) {
	key := strings.ToLower(strings.TrimSpace(id))
	if canonical, ok := styleAliases[key]; ok {
		key = canonical
	}
	style, ok := styles[key]
	if !ok {
		return Style{}, domain.ErrInvalidStyle
	}
	return style, nil
}

// Styles lists the supported styles in a stable order.
func Styles() []Style {
	return []Style{styles["chibi_2d"], styles["pixar_3d"]}
}
