package hexdump

import (
	"bytes"
	"fmt"
	"io"
	"strconv"
	"strings"
	"unicode"

	"github.com/fatih/color"
)

// Options defines options for customizing the hexdump output
type Options struct {
	// BytesPerLine defines the number of bytes to display per line
	BytesPerLine int

	// ShowASCII determines whether to show the ASCII representation
	ShowASCII bool

	// StartAddress is the address printed for the first byte
	StartAddress uint64

	// AddressWidth is the width of the address column in hex digits
	AddressWidth int

	// HighlightStart and HighlightLen mark a window of data, usually a
	// signature match or a patch site. HighlightLen 0 disables it.
	HighlightStart int
	HighlightLen   int

	AddressColor   *color.Color
	HexColor       *color.Color
	ZeroColor      *color.Color
	ASCIIColor     *color.Color
	HighlightColor *color.Color
}

// DefaultOptions returns the default hexdump options
func DefaultOptions() Options {
	return Options{
		BytesPerLine:   16,
		ShowASCII:      true,
		AddressWidth:   12,
		AddressColor:   color.New(color.FgCyan),
		HexColor:       color.New(color.FgGreen),
		ZeroColor:      color.New(color.FgHiBlack),
		ASCIIColor:     color.New(color.FgWhite),
		HighlightColor: color.New(color.FgBlack, color.BgYellow),
	}
}

// Dump creates a hex dump of data with the given options
func Dump(data []byte, options Options) string {
	var buffer bytes.Buffer
	DumpToWriter(&buffer, data, options)
	return buffer.String()
}

// DumpToWriter writes a hex dump of data to writer
func DumpToWriter(writer io.Writer, data []byte, options Options) {
	if options.BytesPerLine <= 0 {
		options.BytesPerLine = 16
	}
	if options.AddressWidth <= 0 {
		options.AddressWidth = 8
	}

	for offset := 0; offset < len(data); offset += options.BytesPerLine {
		end := offset + options.BytesPerLine
		if end > len(data) {
			end = len(data)
		}
		formatLine(writer, data[offset:end], offset, options)
	}
}

func (o Options) highlighted(pos int) bool {
	return o.HighlightLen > 0 && pos >= o.HighlightStart && pos < o.HighlightStart+o.HighlightLen
}

func paint(c *color.Color, s string) string {
	if c == nil {
		return s
	}
	return c.Sprint(s)
}

func formatLine(writer io.Writer, line []byte, offset int, options Options) {
	address := fmt.Sprintf("%0"+strconv.Itoa(options.AddressWidth)+"x", options.StartAddress+uint64(offset))
	fmt.Fprint(writer, paint(options.AddressColor, address), "  ")

	half := options.BytesPerLine / 2
	hexParts := make([]string, 0, options.BytesPerLine)
	for i, b := range line {
		c := options.HexColor
		switch {
		case options.highlighted(offset + i):
			c = options.HighlightColor
		case b == 0:
			c = options.ZeroColor
		}
		hexParts = append(hexParts, paint(c, fmt.Sprintf("%02x", b)))
	}

	if options.BytesPerLine >= 8 && len(hexParts) > half {
		fmt.Fprint(writer, strings.Join(hexParts[:half], " "), " | ", strings.Join(hexParts[half:], " "))
	} else {
		fmt.Fprint(writer, strings.Join(hexParts, " "))
	}

	if !options.ShowASCII {
		fmt.Fprintln(writer)
		return
	}

	// Pad short lines so the ASCII column stays aligned
	if missing := options.BytesPerLine - len(line); missing > 0 {
		padding := missing * 3
		if options.BytesPerLine >= 8 && len(line) <= half {
			padding += 2
		}
		fmt.Fprint(writer, strings.Repeat(" ", padding))
	}

	fmt.Fprint(writer, " | ")
	for i, b := range line {
		ch := "."
		if b != 0 && b < unicode.MaxASCII && unicode.IsPrint(rune(b)) {
			ch = string(rune(b))
		}

		c := options.ASCIIColor
		switch {
		case options.highlighted(offset + i):
			c = options.HighlightColor
		case ch == ".":
			c = options.ZeroColor
		}
		fmt.Fprint(writer, paint(c, ch))
	}
	fmt.Fprintln(writer)
}

// Context dumps the bytes surrounding a match at offset matchOffset of data,
// highlighting the match window. base is the address of data[0].
func Context(writer io.Writer, data []byte, base uint64, matchOffset, matchLen, before, after int) {
	before, after = max(before, 0), max(after, 0)

	start := matchOffset - before
	if start < 0 {
		start = 0
	}
	// Keep lines aligned to the dump width
	start -= start % 16

	end := matchOffset + matchLen + after
	if end > len(data) {
		end = len(data)
	}
	if start >= end {
		return
	}

	options := DefaultOptions()
	options.StartAddress = base + uint64(start)
	options.HighlightStart = matchOffset - start
	options.HighlightLen = matchLen
	DumpToWriter(writer, data[start:end], options)
}
