package domain

import (
	"bufio"
	"bytes"
	"fmt"
	"strconv"
	"strings"
)

// Annotation is one YOLO bounding box. ClassID is authoritative on disk;
// ClassName is a display cache that survives registry edits.
type Annotation struct {
	ClassID   int    `json:"class_id"`
	ClassName string `json:"class_name"`
	Box
}

// NewAnnotation builds an annotation, clamping the box into the unit square
func NewAnnotation(classID int, className string, box Box) Annotation {
	return Annotation{
		ClassID:   classID,
		ClassName: className,
		Box:       box.Clamped(),
	}
}

// FormatLine renders the annotation as "<class_id> <xc> <yc> <w> <h>"
func (a Annotation) FormatLine() string {
	return fmt.Sprintf("%d %.6f %.6f %.6f %.6f", a.ClassID, a.XCenter, a.YCenter, a.Width, a.Height)
}

// ParseLine parses a single label-file line. ClassName is left empty;
// callers fill it from the class registry.
func ParseLine(line string) (Annotation, error) {
	fields := strings.Fields(line)
	if len(fields) != 5 {
		return Annotation{}, fmt.Errorf("%w: expected 5 fields, got %d in %q", ErrCorrupt, len(fields), line)
	}

	classID, err := strconv.Atoi(fields[0])
	if err != nil || classID < 0 {
		return Annotation{}, fmt.Errorf("%w: invalid class id %q", ErrCorrupt, fields[0])
	}

	var vals [4]float64
	for i, f := range fields[1:] {
		v, err := strconv.ParseFloat(f, 64)
		if err != nil {
			return Annotation{}, fmt.Errorf("%w: invalid coordinate %q", ErrCorrupt, f)
		}
		if v < 0 || v > 1 {
			return Annotation{}, fmt.Errorf("%w: coordinate %q outside [0,1]", ErrCorrupt, f)
		}
		vals[i] = v
	}

	return Annotation{
		ClassID: classID,
		Box:     Box{XCenter: vals[0], YCenter: vals[1], Width: vals[2], Height: vals[3]},
	}, nil
}

// FormatLabelFile renders annotations one per line with a final newline.
// An empty slice renders as an empty file.
func FormatLabelFile(anns []Annotation) []byte {
	var buf bytes.Buffer
	for _, a := range anns {
		buf.WriteString(a.FormatLine())
		buf.WriteByte('\n')
	}
	return buf.Bytes()
}

// ParseLabelFile parses label-file content, skipping blank lines.
// Line numbers in errors are 1-based.
func ParseLabelFile(data []byte) ([]Annotation, error) {
	var anns []Annotation
	scanner := bufio.NewScanner(bytes.NewReader(data))
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		a, err := ParseLine(line)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNo, err)
		}
		anns = append(anns, a)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	return anns, nil
}
