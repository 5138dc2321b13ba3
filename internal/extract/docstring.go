package extract

import (
	"regexp"
	"strings"

	"github.com/Aman-CERP/livedoc/internal/doc"
)

// CleanDoc normalizes docstring indentation: tabs are expanded, the common
// indentation of every line after the first is removed and surrounding blank
// lines are dropped.
func CleanDoc(raw string) string {
	lines := strings.Split(strings.ReplaceAll(raw, "\t", "        "), "\n")

	margin := -1
	for _, line := range lines[1:] {
		stripped := strings.TrimLeft(line, " ")
		if stripped == "" {
			continue
		}
		if indent := len(line) - len(stripped); margin < 0 || indent < margin {
			margin = indent
		}
	}

	lines[0] = strings.TrimSpace(lines[0])
	for i := 1; i < len(lines); i++ {
		if margin > 0 && len(lines[i]) >= margin {
			lines[i] = lines[i][margin:]
		} else {
			lines[i] = strings.TrimLeft(lines[i], " ")
		}
		lines[i] = strings.TrimRight(lines[i], " ")
	}

	for len(lines) > 0 && strings.TrimSpace(lines[0]) == "" {
		lines = lines[1:]
	}
	for len(lines) > 0 && strings.TrimSpace(lines[len(lines)-1]) == "" {
		lines = lines[:len(lines)-1]
	}
	return strings.Join(lines, "\n")
}

// DetectStyle guesses the docstring convention.
func DetectStyle(text string) string {
	lower := strings.ToLower(text)
	switch {
	case strings.Contains(lower, "\nparameters\n") || strings.Contains(text, "----------"):
		return StyleNumpy
	case strings.Contains(lower, "args:") || strings.Contains(lower, "arguments:"):
		return StyleGoogle
	case strings.Contains(text, ":param") || strings.Contains(text, ":returns:"):
		return StyleRest
	default:
		return StylePlain
	}
}

// ParseDocstring splits a cleaned docstring into summary and sections.
// style "auto" or "" selects the convention with DetectStyle.
func ParseDocstring(text, style string) *doc.ParsedDocstring {
	if style == "" || style == StyleAuto {
		style = DetectStyle(text)
	}

	var p *doc.ParsedDocstring
	switch style {
	case StyleNumpy:
		p = parseNumpy(text)
	case StyleGoogle:
		p = parseGoogle(text)
	case StyleRest:
		p = parseRest(text)
	default:
		p = parsePlain(text)
	}
	p.Style = style
	return p
}

func parsePlain(text string) *doc.ParsedDocstring {
	summary, rest, _ := strings.Cut(text, "\n")
	return &doc.ParsedDocstring{
		Summary:     strings.TrimSpace(summary),
		Description: strings.TrimSpace(rest),
	}
}

var numpyUnderline = regexp.MustCompile(`^\s*-{3,}\s*$`)

func parseNumpy(text string) *doc.ParsedDocstring {
	lines := strings.Split(text, "\n")
	sections := map[string]string{}

	var intro []string
	inIntro := true
	for i := 0; i < len(lines); {
		if i+1 < len(lines) && numpyUnderline.MatchString(lines[i+1]) {
			inIntro = false
			header := strings.ToLower(strings.TrimSpace(lines[i]))
			i += 2
			var body []string
			for i < len(lines) && !(i+1 < len(lines) && numpyUnderline.MatchString(lines[i+1])) {
				body = append(body, lines[i])
				i++
			}
			sections[header] = strings.TrimRight(strings.Join(body, "\n"), "\n ")
			continue
		}
		if inIntro {
			intro = append(intro, lines[i])
		}
		i++
	}

	p := introSummary(intro)
	if params := firstSection(sections, "parameters", "parameter"); params != "" {
		p.Params = parseTypedEntries(params, numpyParam)
	}
	if returns := firstSection(sections, "returns", "return"); returns != "" {
		p.Returns = parseReturns(returns)
	}
	if raises := sections["raises"]; raises != "" {
		p.Raises = parseRaises(raises)
	}
	p.Examples = sections["examples"]
	return p
}

var googleHeader = regexp.MustCompile(`^\s*(Args|Arguments|Returns|Yields|Raises|Examples|Attributes)\s*:\s*$`)

func parseGoogle(text string) *doc.ParsedDocstring {
	sections := map[string]string{}
	var intro, body []string
	current := ""

	for _, line := range strings.Split(text, "\n") {
		if m := googleHeader.FindStringSubmatch(line); m != nil {
			if current != "" {
				sections[current] = trimBlankLines(body)
			}
			current = strings.ToLower(m[1])
			body = nil
			continue
		}
		if current == "" {
			intro = append(intro, line)
		} else {
			body = append(body, line)
		}
	}
	if current != "" {
		sections[current] = trimBlankLines(body)
	}

	p := introSummary(intro)
	if params := firstSection(sections, "args", "arguments"); params != "" {
		p.Params = parseTypedEntries(dedent(params), googleParam)
	}
	if returns := sections["returns"]; returns != "" {
		p.Returns = parseReturns(returns)
	}
	if raises := sections["raises"]; raises != "" {
		p.Raises = parseRaises(raises)
	}
	p.Examples = sections["examples"]
	return p
}

var (
	restParam  = regexp.MustCompile(`^\s*:param\s+(?:(\S+)\s+)?([A-Za-z0-9_]+)\s*:\s*(.*)$`)
	restType   = regexp.MustCompile(`^\s*:type\s+([A-Za-z0-9_]+)\s*:\s*(.*)$`)
	restReturn = regexp.MustCompile(`^\s*:returns?\s*:\s*(.*)$`)
	restRtype  = regexp.MustCompile(`^\s*:rtype\s*:\s*(.*)$`)
	restRaise  = regexp.MustCompile(`^\s*:raises?\s+([A-Za-z0-9_.]+)\s*:\s*(.*)$`)
)

func parseRest(text string) *doc.ParsedDocstring {
	var intro []string
	p := &doc.ParsedDocstring{}
	types := map[string]string{}
	inFields := false

	for _, line := range strings.Split(text, "\n") {
		switch {
		case restParam.MatchString(line):
			m := restParam.FindStringSubmatch(line)
			p.Params = append(p.Params, doc.DocField{Name: m[2], Type: m[1], Desc: strings.TrimSpace(m[3])})
		case restType.MatchString(line):
			m := restType.FindStringSubmatch(line)
			types[m[1]] = strings.TrimSpace(m[2])
		case restReturn.MatchString(line):
			m := restReturn.FindStringSubmatch(line)
			if p.Returns == nil {
				p.Returns = &doc.DocField{}
			}
			p.Returns.Desc = strings.TrimSpace(m[1])
		case restRtype.MatchString(line):
			m := restRtype.FindStringSubmatch(line)
			if p.Returns == nil {
				p.Returns = &doc.DocField{}
			}
			p.Returns.Type = strings.TrimSpace(m[1])
		case restRaise.MatchString(line):
			m := restRaise.FindStringSubmatch(line)
			p.Raises = append(p.Raises, doc.DocField{Name: m[1], Desc: strings.TrimSpace(m[2])})
		default:
			if strings.HasPrefix(strings.TrimSpace(line), ":") {
				inFields = true
			}
			if !inFields {
				intro = append(intro, line)
			}
			continue
		}
		inFields = true
	}

	for i := range p.Params {
		if t, ok := types[p.Params[i].Name]; ok && p.Params[i].Type == "" {
			p.Params[i].Type = t
		}
	}
	s := introSummary(intro)
	p.Summary, p.Description = s.Summary, s.Description
	return p
}

var (
	numpyParam  = regexp.MustCompile(`^([A-Za-z0-9_.,*]+)\s*:\s*(.+)$`)
	googleParam = regexp.MustCompile(`^([A-Za-z0-9_*]+)\s*(?:\(([^)]*)\))?\s*:\s*(.*)$`)
	returnsHead = regexp.MustCompile(`^([A-Za-z0-9_.,()\[\] ]+?)\s*:\s*(.*)$`)
)

// parseTypedEntries reads "name : type" (numpy) or "name (type): desc"
// (google) entries. Indented lines continue the previous entry.
func parseTypedEntries(text string, head *regexp.Regexp) []doc.DocField {
	var out []doc.DocField
	for _, line := range strings.Split(text, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		indented := strings.HasPrefix(line, " ") || strings.HasPrefix(line, "\t")
		if m := head.FindStringSubmatch(trimmed); m != nil && (!indented || len(out) == 0) {
			f := doc.DocField{Name: m[1], Type: strings.TrimSpace(m[2])}
			if head == googleParam {
				f.Desc = strings.TrimSpace(m[3])
			}
			out = append(out, f)
			continue
		}
		if len(out) == 0 {
			continue
		}
		last := &out[len(out)-1]
		if last.Desc != "" {
			last.Desc += "\n"
		}
		last.Desc += trimmed
	}
	return out
}

func parseReturns(text string) *doc.DocField {
	lines := strings.Split(strings.TrimSpace(text), "\n")
	first := strings.TrimSpace(lines[0])
	rest := trimJoin(lines[1:])

	if m := returnsHead.FindStringSubmatch(first); m != nil {
		desc := strings.TrimSpace(m[2])
		if rest != "" {
			desc = strings.TrimSpace(desc + "\n" + rest)
		}
		return &doc.DocField{Type: strings.TrimSpace(m[1]), Desc: desc}
	}
	if !strings.Contains(first, " ") {
		return &doc.DocField{Type: first, Desc: rest}
	}
	return &doc.DocField{Desc: trimJoin(lines)}
}

func parseRaises(text string) []doc.DocField {
	var out []doc.DocField
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		name, desc, _ := strings.Cut(line, ":")
		out = append(out, doc.DocField{Name: strings.TrimSpace(name), Desc: strings.TrimSpace(desc)})
	}
	return out
}

func introSummary(lines []string) *doc.ParsedDocstring {
	text := strings.TrimSpace(strings.Join(lines, "\n"))
	summary, rest, _ := strings.Cut(text, "\n")
	return &doc.ParsedDocstring{
		Summary:     strings.TrimSpace(summary),
		Description: strings.TrimSpace(rest),
	}
}

func firstSection(sections map[string]string, names ...string) string {
	for _, n := range names {
		if s, ok := sections[n]; ok && s != "" {
			return s
		}
	}
	return ""
}

// trimBlankLines joins lines without leading and trailing blank lines,
// keeping indentation.
func trimBlankLines(lines []string) string {
	for len(lines) > 0 && strings.TrimSpace(lines[0]) == "" {
		lines = lines[1:]
	}
	for len(lines) > 0 && strings.TrimSpace(lines[len(lines)-1]) == "" {
		lines = lines[:len(lines)-1]
	}
	return strings.Join(lines, "\n")
}

func trimJoin(lines []string) string {
	out := make([]string, 0, len(lines))
	for _, l := range lines {
		if s := strings.TrimSpace(l); s != "" {
			out = append(out, s)
		}
	}
	return strings.Join(out, "\n")
}

// dedent removes the smallest common indentation of non-blank lines.
func dedent(text string) string {
	lines := strings.Split(text, "\n")
	margin := -1
	for _, l := range lines {
		s := strings.TrimLeft(l, " ")
		if s == "" {
			continue
		}
		if indent := len(l) - len(s); margin < 0 || indent < margin {
			margin = indent
		}
	}
	if margin <= 0 {
		return text
	}
	for i, l := range lines {
		if len(l) >= margin {
			lines[i] = l[margin:]
		}
	}
	return strings.Join(lines, "\n")
}
