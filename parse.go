package gridfill

import (
	"regexp"
	"strings"
)

const commandPrefix = "gx:"

// ParsedCommand is a markup command parsed from a cell comment, such as
// gx:each(items="employees" var="e" lastCell="C2").
type ParsedCommand struct {
	Name     string            // command name ("area", "each", "if", ...)
	Attrs    map[string]string // attribute values
	LastCell Pos               // parsed lastCell attribute
	Areas    []AreaRef         // parsed areas=[...] attribute (optional)
	Pos      Pos               // cell containing this comment
}

// attrKeyPattern matches the key= part of an attribute.
var attrKeyPattern = regexp.MustCompile(`(\w+)\s*=\s*`)

// areasPattern matches the areas=[...] attribute.
var areasPattern = regexp.MustCompile(`areas\s*=\s*\[([^\]]*)\]`)

// areaRefPattern matches range references like "A1:C5" or "Sheet1!A1:C5".
var areaRefPattern = regexp.MustCompile(`[A-Za-z0-9_!'.]+:[A-Za-z0-9_!'.]+`)

// ParseComment parses all gx: commands from a cell comment. A comment may
// contain multiple commands, one per line.
func ParseComment(comment string, pos Pos) ([]ParsedCommand, error) {
	if comment == "" {
		return nil, nil
	}

	var commands []ParsedCommand
	for _, line := range splitCommentLines(comment) {
		line = strings.TrimSpace(line)
		if !IsCommand(line) {
			continue
		}
		cmd, err := parseCommandLine(line, pos)
		if err != nil {
			return nil, err
		}
		commands = append(commands, cmd)
	}
	return commands, nil
}

// splitCommentLines splits a comment into lines, handling \n and \r\n.
func splitCommentLines(comment string) []string {
	comment = strings.ReplaceAll(comment, "\r\n", "\n")
	comment = strings.ReplaceAll(comment, "\r", "\n")
	return strings.Split(comment, "\n")
}

// IsCommand returns true if the line starts with the command prefix.
func IsCommand(line string) bool {
	return strings.HasPrefix(strings.TrimSpace(line), commandPrefix)
}

// parseCommandLine parses a single command line.
func parseCommandLine(line string, pos Pos) (ParsedCommand, error) {
	parenIdx := strings.Index(line, "(")
	if parenIdx < 0 {
		return ParsedCommand{}, configErrorf("missing '(' in command at %s: %q", pos, line)
	}
	name := strings.TrimSpace(line[len(commandPrefix):parenIdx])

	closeIdx := strings.LastIndex(line, ")")
	if closeIdx < 0 {
		return ParsedCommand{}, configErrorf("missing ')' in command at %s: %q", pos, line)
	}
	attrStr := line[parenIdx+1 : closeIdx]
	attrs := parseAttributes(attrStr)

	lastCellStr, hasLastCell := attrs["lastCell"]
	if !hasLastCell {
		return ParsedCommand{}, configErrorf("missing lastCell attribute in %s command at %s: %q", name, pos, line)
	}

	lastCell, err := ParsePos(lastCellStr)
	if err != nil {
		return ParsedCommand{}, configErrorf("invalid lastCell %q at %s: %v", lastCellStr, pos, err)
	}
	if lastCell.Sheet == "" {
		lastCell.Sheet = pos.Sheet
	}

	var areas []AreaRef
	if m := areasPattern.FindStringSubmatch(attrStr); len(m) > 1 {
		for _, ar := range areaRefPattern.FindAllString(m[1], -1) {
			areaRef, err := ParseAreaRef(ar)
			if err != nil {
				return ParsedCommand{}, configErrorf("invalid area ref %q at %s: %v", ar, pos, err)
			}
			if areaRef.First.Sheet == "" && pos.Sheet != "" {
				areaRef.First.Sheet = pos.Sheet
				areaRef.Last.Sheet = pos.Sheet
			}
			areas = append(areas, areaRef)
		}
	}

	return ParsedCommand{
		Name:     name,
		Attrs:    attrs,
		LastCell: lastCell,
		Areas:    areas,
		Pos:      pos,
	}, nil
}

// isQuote checks if a rune is a recognized quote character. Smart quotes
// appear when templates are edited in office suites.
func isQuote(r rune) bool {
	return r == '"' || r == '\'' || r == '“' || r == '”' || r == '‘' || r == '’'
}

// matchingCloseQuote returns the closing quote for a given opening quote.
func matchingCloseQuote(open rune) rune {
	switch open {
	case '“':
		return '”'
	case '‘':
		return '’'
	default:
		return open
	}
}

// parseAttributes extracts key="value" pairs from an attribute string. The
// closing quote must match the opening quote's type, so single quotes can
// appear inside double-quoted values (select="e.City == 'Geldern'").
func parseAttributes(attrStr string) map[string]string {
	attrs := make(map[string]string)
	runes := []rune(attrStr)
	i := 0
	for i < len(runes) {
		loc := attrKeyPattern.FindStringIndex(string(runes[i:]))
		if loc == nil {
			break
		}
		m := attrKeyPattern.FindStringSubmatch(string(runes[i:]))
		key := m[1]
		i += loc[1] // advance past "key="

		if i >= len(runes) || !isQuote(runes[i]) {
			continue
		}
		closeQuote := matchingCloseQuote(runes[i])
		i++ // skip opening quote

		start := i
		for i < len(runes) && runes[i] != closeQuote {
			i++
		}
		attrs[key] = string(runes[start:i])
		if i < len(runes) {
			i++ // skip closing quote
		}
	}
	return attrs
}
