package utils

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/alecthomas/chroma/v2/quick"
)

// RenderHighlightedWithContext prints content with syntax highlighting,
// checking for cancellation between lines so long output stays
// interruptible.
func RenderHighlightedWithContext(ctx context.Context, content string, language string, theme string) error {
	lines := strings.Split(content, "\n")

	for i, line := range lines {
		// Check for context cancellation before each line
		select {
		case <-ctx.Done():
			fmt.Printf("\n\n🔄 Output interrupted...\n")
			return ctx.Err()
		default:
		}

		// Use a buffer to capture the highlight output
		var buf bytes.Buffer
		if err := quick.Highlight(&buf, line+"\n", language, "terminal256", theme); err != nil {
			return err
		}
		fmt.Print(buf.String())

		// Check for cancellation more frequently for responsive interruption
		if i%5 == 0 {
			select {
			case <-ctx.Done():
				fmt.Printf("\n\n🔄 Output interrupted...\n")
				return ctx.Err()
			default:
			}
		}
	}

	return nil
}
