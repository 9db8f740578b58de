package preproc

import (
	"bytes"
	"strconv"
	"strings"
)

// printer lays tokens out on the lines they came from. Small gaps are
// filled with blank lines, larger ones and file switches with markers.
type printer struct {
	buf         bytes.Buffer
	file        string
	line        uint32
	atLineStart bool
	prev        string
}

func newPrinter() *printer {
	return &printer{atLineStart: true}
}

func (pr *printer) bytes() []byte {
	if !pr.atLineStart {
		pr.buf.WriteByte('\n')
		pr.atLineStart = true
	}
	return pr.buf.Bytes()
}

// marker writes `# line "file" flag` and repositions the cursor.
func (pr *printer) marker(line uint32, file, flag string) {
	if !pr.atLineStart {
		pr.buf.WriteByte('\n')
	}
	pr.buf.WriteString("# ")
	pr.buf.WriteString(strconv.FormatUint(uint64(line), 10))
	pr.buf.WriteByte(' ')
	pr.buf.WriteString(strconv.Quote(file))
	if flag != "" {
		pr.buf.WriteByte(' ')
		pr.buf.WriteString(flag)
	}
	pr.buf.WriteByte('\n')
	pr.file, pr.line, pr.atLineStart, pr.prev = file, line, true, ""
}

// moveTo positions the cursor at the start of, or inside, line of file.
func (pr *printer) moveTo(line uint32, file string) {
	switch {
	case file != pr.file || line < pr.line:
		pr.marker(line, file, "")
	case line > pr.line:
		gap := line - pr.line
		if gap > maxBlankLines {
			pr.marker(line, file, "")
			return
		}
		for ; gap > 0; gap-- {
			pr.buf.WriteByte('\n')
		}
		pr.line, pr.atLineStart, pr.prev = line, true, ""
	}
}

func (pr *printer) token(t ppToken) {
	pr.moveTo(t.line, t.file)
	if pr.atLineStart {
		if t.col > 1 {
			pr.buf.WriteString(strings.Repeat(" ", int(t.col-1)))
		}
	} else if t.space || needsSpace(pr.prev, t.Text) {
		pr.buf.WriteByte(' ')
	}
	pr.buf.WriteString(t.Text)
	pr.atLineStart = false
	pr.prev = t.Text
}

// rawLine emits a directive that is passed through to the output on a line of its own.
func (pr *printer) rawLine(line uint32, file, text string) {
	if !pr.atLineStart {
		pr.marker(line, file, "")
	} else {
		pr.moveTo(line, file)
	}
	pr.buf.WriteString(text)
	pr.buf.WriteByte('\n')
	pr.line = line + 1
	pr.atLineStart = true
	pr.prev = ""
}

// needsSpace reports whether printing cur right after prev would lex differently.
func needsSpace(prev, cur string) bool {
	if prev == "" || cur == "" {
		return false
	}
	a, b := prev[len(prev)-1], cur[0]
	switch {
	case isWordByte(a) && (isWordByte(b) || b == '"' || b == '\''):
		return true
	case (isWordByte(a) || a == '.') && (b == '.' || b == '+' || b == '-') && isNumberish(prev):
		return true
	case a == '.' && b >= '0' && b <= '9':
		return true
	}
	pair := string([]byte{a, b})
	for _, p := range puncts2 {
		if strings.HasPrefix(p, pair) {
			return true
		}
	}
	return pair == "//" || pair == "/*"
}

var puncts2 = []string{
	"::", "->", ".*", "##", "&&", "||", "==", "!=", "<=", ">=", "<<", ">>", "++", "--",
	"+=", "-=", "*=", "/=", "%=", "&=", "|=", "^=", "...", "<=>", "<<<", ">>>",
}

func isWordByte(b byte) bool {
	return b == '_' || b == '$' || b >= 0x80 || (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z') || (b >= '0' && b <= '9')
}

func isNumberish(s string) bool {
	return len(s) > 0 && (s[0] >= '0' && s[0] <= '9' || s[0] == '.')
}
