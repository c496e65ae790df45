package recovery

// arrayScan is what the scanner learned about a possibly truncated array.
type arrayScan struct {
	// cuts holds the offset just past every object that closed as a direct
	// child of the top-level array, in text order.
	cuts []int
	// started counts the direct-child objects that were opened.
	started int
}

// scanArray walks text, which must begin with '[', tracking bracket depth and
// string state so braces inside string values never count as structure.
func scanArray(text string) arrayScan {
	var (
		scan     arrayScan
		depth    int
		inString bool
		escaped  bool
	)

	for i := 0; i < len(text); i++ {
		c := text[i]

		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}

		switch c {
		case '"':
			inString = true
		case '[', '{':
			depth++
			if c == '{' && depth == 2 {
				scan.started++
			}
		case ']', '}':
			depth--
			if c == '}' && depth == 1 {
				scan.cuts = append(scan.cuts, i+1)
			}
			if depth <= 0 {
				return scan
			}
		}
	}
	return scan
}
