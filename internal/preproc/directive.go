package preproc

import (
	"strconv"
	"strings"

	"drai/internal/diag"
	"drai/internal/token"
	"drai/internal/vfs"
)

// directive executes one '#' line of an active group.
func (p *Preprocessor) directive(f *frame, hash token.Token) {
	name := f.lx.Peek()
	if name.BOL || name.Kind == token.EOF {
		return // null directive
	}
	if name.Kind == token.Number {
		p.lineDirective(f, hash)
		return
	}
	f.lx.Next()

	switch name.Text {
	case "define":
		p.parseDefine(f, hash)
	case "undef":
		p.undef(f, hash)
	case "include", "include_next", "import":
		p.include(f, hash, name.Text)
	case "if":
		v := p.evalCondition(f, hash)
		p.pushCond(f, hash, v)
	case "ifdef", "ifndef":
		line := p.lineTokens(f)
		if len(line) == 0 || !line[0].IsWord() {
			p.errorf(diag.PPIfSyntax, name.Span, "macro name missing in #%s", name.Text)
			p.pushCond(f, hash, false)
			return
		}
		_, defined := p.macros[line[0].Text]
		p.pushCond(f, hash, defined == (name.Text == "ifdef"))
	case "elif", "elifdef", "elifndef", "else":
		p.skipLine(f)
		if len(f.conds) == 0 {
			p.errorf(diag.PPUnbalancedConditional, name.Span, "#%s without #if", name.Text)
			return
		}
		top := &f.conds[len(f.conds)-1]
		if top.seenElse {
			p.errorf(diag.PPUnbalancedConditional, name.Span, "#%s after #else", name.Text)
		}
		if name.Text == "else" {
			top.seenElse = true
		}
		// the active group ended: every later group is skipped
		top.taken = true
		p.skipGroup(f)
	case "endif":
		p.skipLine(f)
		if len(f.conds) == 0 {
			p.errorf(diag.PPUnbalancedConditional, name.Span, "#endif without #if")
			return
		}
		f.conds = f.conds[:len(f.conds)-1]
	case "line":
		p.lineDirective(f, hash)
	case "error", "warning":
		msg := strings.TrimSpace(f.lx.RestOfLine(name))
		f.lx.SetQuiet(true)
		p.skipLine(f)
		f.lx.SetQuiet(false)
		code, sev := diag.PPErrorDirective, diag.SevError
		if name.Text == "warning" {
			code, sev = diag.PPWarningDirective, diag.SevWarning
		}
		p.reporter.Report(code, sev, name.Span, msg, nil)
	case "pragma":
		p.pragma(f, hash, name)
	case "ident", "sccs":
		p.skipLine(f)
	default:
		p.skipLine(f)
		p.errorf(diag.PPUnknownDirective, name.Span, "invalid preprocessing directive '#%s'", name.Text)
	}
}

func (p *Preprocessor) pushCond(f *frame, hash token.Token, taken bool) {
	f.conds = append(f.conds, condState{taken: taken, at: hash.Span})
	if !taken {
		p.skipGroup(f)
	}
}

// skipGroup discards lines until a group of the innermost conditional
// becomes active or its #endif is reached.
func (p *Preprocessor) skipGroup(f *frame) {
	f.lx.SetQuiet(true)
	defer f.lx.SetQuiet(false)

	depth := 0
	for {
		tok := f.lx.Next()
		if tok.Kind == token.EOF {
			// reported by lexNext when the frame is popped
			return
		}
		if tok.Kind != token.Hash || !tok.BOL {
			continue
		}
		name := f.lx.Peek()
		if name.BOL || name.Kind == token.EOF {
			continue
		}
		switch name.Text {
		case "if", "ifdef", "ifndef":
			depth++
		case "endif":
			if depth > 0 {
				depth--
				break
			}
			p.skipLine(f)
			f.conds = f.conds[:len(f.conds)-1]
			return
		case "elif", "elifdef", "elifndef":
			if depth > 0 {
				break
			}
			top := &f.conds[len(f.conds)-1]
			if top.seenElse {
				f.lx.SetQuiet(false)
				p.errorf(diag.PPUnbalancedConditional, name.Span, "#%s after #else", name.Text)
				f.lx.SetQuiet(true)
			}
			if top.taken {
				break
			}
			f.lx.Next()
			f.lx.SetQuiet(false)
			var v bool
			if name.Text == "elif" {
				v = p.evalCondition(f, tok)
			} else {
				line := p.lineTokens(f)
				_, defined := p.macros[firstText(line)]
				v = defined == (name.Text == "elifdef")
			}
			f.lx.SetQuiet(true)
			if v {
				top.taken = true
				return
			}
			continue
		case "else":
			if depth > 0 {
				break
			}
			top := &f.conds[len(f.conds)-1]
			top.seenElse = true
			if !top.taken {
				top.taken = true
				p.skipLine(f)
				return
			}
		}
		p.skipLine(f)
	}
}

func firstText(toks []token.Token) string {
	if len(toks) == 0 {
		return ""
	}
	return toks[0].Text
}

func (p *Preprocessor) include(f *frame, hash token.Token, kind string) {
	line := p.lineTokens(f)
	if err := p.ctx.Err(); err != nil {
		p.err = err
		return
	}
	if len(line) == 0 {
		p.errorf(diag.PPBadInclude, hash.Span, "#%s expects \"FILENAME\" or <FILENAME>", kind)
		return
	}

	name, angled, ok := p.headerName(f, line)
	if !ok {
		p.errorf(diag.PPBadInclude, line[0].Span, "#%s expects \"FILENAME\" or <FILENAME>", kind)
		return
	}
	endLine := f.file.LineCol(line[len(line)-1].Span.End).Line
	retLine := presumedLine(endLine+1, f.lineDelta)

	startDir := -1
	if kind == "include_next" && f.dirIdx >= 0 {
		startDir = f.dirIdx + 1
	}
	path, dirIdx, found := p.resolveInclude(name, angled, f, startDir)
	if !found {
		if angled {
			p.result.Passthrough = append(p.result.Passthrough, name)
			p.out.rawLine(presumedLine(f.file.LineCol(hash.Span.Start).Line, f.lineDelta), f.presumed, "#include <"+name+">")
			return
		}
		p.errorf(diag.PPIncludeNotFound, line[0].Span, "'%s' file not found", name)
		return
	}
	key := vfs.Clean(path)
	if p.once[key] {
		return
	}
	if kind == "import" {
		p.once[key] = true
	}
	if len(p.stack) >= p.opts.MaxIncludeDepth {
		p.errorf(diag.PPIncludeDepth, line[0].Span, "#include nested depth %d exceeds maximum of %d", len(p.stack), p.opts.MaxIncludeDepth)
		return
	}

	id, err := p.fileSet.LoadFrom(p.fs, path)
	if err != nil {
		p.errorf(diag.PPIncludeNotFound, line[0].Span, "cannot read '%s': %v", name, err)
		return
	}
	if !p.entered[key] {
		p.entered[key] = true
		p.result.Includes = append(p.result.Includes, path)
	}
	inc := p.fileSet.Get(id)
	p.push(inc, inc.Path, dirIdx)
	p.top().retLine = retLine
	if !p.silent {
		p.out.marker(1, inc.Path, "1")
	}
}

// headerName extracts the file name from an #include operand, expanding
// macros when the operand is neither form directly.
func (p *Preprocessor) headerName(f *frame, line []token.Token) (string, bool, bool) {
	first := line[0]
	switch {
	case first.Kind == token.StringLit && strings.HasPrefix(first.Text, `"`):
		return first.Text[1 : len(first.Text)-1], false, true
	case first.Kind == token.Lt:
		// <...> is taken verbatim from the source line
		content := f.file.Content
		start := first.Span.End
		end := start
		for int(end) < len(content) && content[end] != '>' && content[end] != '\n' {
			end++
		}
		if int(end) >= len(content) || content[end] != '>' {
			return "", true, false
		}
		return string(content[start:end]), true, true
	}

	toks := make([]ppToken, len(line))
	for i, t := range line {
		toks[i] = p.wrap(f, t)
	}
	expanded := p.expandList(toks)
	if len(expanded) == 0 {
		return "", false, false
	}
	if expanded[0].Kind == token.StringLit && strings.HasPrefix(expanded[0].Text, `"`) {
		return expanded[0].Text[1 : len(expanded[0].Text)-1], false, true
	}
	if expanded[0].Kind == token.Lt {
		var b strings.Builder
		for i := 1; i < len(expanded); i++ {
			if expanded[i].Kind == token.Gt {
				return b.String(), true, true
			}
			if i > 1 && expanded[i].space {
				b.WriteByte(' ')
			}
			b.WriteString(expanded[i].Text)
		}
	}
	return "", false, false
}

// lineDirective handles "#line N ["file"]" and GNU "# N "file" flags".
func (p *Preprocessor) lineDirective(f *frame, hash token.Token) {
	line := p.lineTokens(f)
	toks := make([]ppToken, len(line))
	for i, t := range line {
		toks[i] = p.wrap(f, t)
	}
	expanded := p.expandList(toks)
	if len(expanded) == 0 || expanded[0].Kind != token.Number {
		p.errorf(diag.PPBadLine, hash.Span, "#line directive requires a positive integer argument")
		return
	}
	n, err := strconv.ParseUint(expanded[0].Text, 10, 32)
	if err != nil || n == 0 {
		p.errorf(diag.PPBadLine, expanded[0].Span, "#line directive requires a positive integer argument")
		return
	}
	if len(expanded) > 1 {
		if expanded[1].Kind != token.StringLit {
			p.errorf(diag.PPBadLine, expanded[1].Span, "invalid filename for #line directive")
			return
		}
		if name, err := strconv.Unquote(expanded[1].Text); err == nil {
			f.presumed = name
		}
	}
	next := hash.Span.End
	if len(line) > 0 {
		next = line[len(line)-1].Span.End
	}
	phys := f.file.LineCol(next).Line + 1
	f.lineDelta = int64(n) - int64(phys)
}

func (p *Preprocessor) pragma(f *frame, hash, name token.Token) {
	text := strings.TrimSpace(f.lx.RestOfLine(name))
	line := p.lineTokens(f)
	if len(line) > 0 && line[0].Text == "once" && len(line) == 1 {
		p.once[vfs.Clean(f.file.Path)] = true
		return
	}
	if p.silent {
		return
	}
	at := presumedLine(f.file.LineCol(hash.Span.Start).Line, f.lineDelta)
	p.out.rawLine(at, f.presumed, "#pragma "+text)
}
