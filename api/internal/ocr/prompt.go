package ocr

import (
	"fmt"

	"image-translator/api/internal/ocr/parse"
)

// Prompt builds the OCR instruction for an image of the given pixel size. The answer format
// it asks for is what parse.Parse understands.
func Prompt(width, height int) string {
	return fmt.Sprintf(`You are an OCR assistant. Read all visible text in the image and return only that text.
Do not describe the image.
Number every text block you recognize and give its position as pixel coordinates, where (0,0) is the
top-left corner of the image. "from" is the top-left corner of the block and "to" its bottom-right corner.
Merge short segments that belong to the same phrase, title or line group into one block, in any language.
Keep numbers together with the words they belong to.
Do not add, infer or guess text that is not clearly readable.
Coordinates must tightly cover the visible text only and must match the real layout.
The image is %dx%d pixels; all coordinates must lie within it.
If there is no text, answer exactly "%s".
Use exactly this format, with no other commentary:
1: <text> (from: {x:12, y:34}, to: {x:56, y:78})
2: <text> (from: {x:90, y:12}, to: {x:34, y:56})
...
N: <text> (from: {x:A, y:B}, to: {x:C, y:D})
Number of text blocks: N`, width, height, parse.NoTextSentinel)
}
