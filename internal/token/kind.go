package token

// Kind represents the category of a source token.
type Kind uint8

const (
	// Invalid indicates an erroneous token.
	Invalid Kind = iota
	// EOF marks the end of the source input.
	EOF

	// Ident represents an identifier token.
	Ident
	KwTemplate  // template
	KwTypename  // typename
	KwClass     // class
	KwStruct    // struct
	KwUnion     // union
	KwEnum      // enum
	KwNamespace // namespace
	KwExtern    // extern
	KwUsing     // using
	KwTypedef   // typedef
	KwConst     // const
	KwVolatile  // volatile
	KwOperator  // operator

	// Number is a preprocessing number: anything that starts like a numeric literal.
	Number
	// StringLit is a narrow, wide, UTF or raw string literal, prefix included.
	StringLit
	// CharLit is a character literal, prefix included.
	CharLit

	Plus          // +
	Minus         // -
	Star          // *
	Slash         // /
	Percent       // %
	Assign        // =
	PlusAssign    // +=
	MinusAssign   // -=
	StarAssign    // *=
	SlashAssign   // /=
	PercentAssign // %=
	AmpAssign     // &=
	PipeAssign    // |=
	CaretAssign   // ^=
	ShlAssign     // <<=
	ShrAssign     // >>=
	PlusPlus      // ++
	MinusMinus    // --
	EqEq          // ==
	Bang          // !
	BangEq        // !=
	Lt            // <
	LtEq          // <=
	Gt            // >
	GtEq          // >=
	Spaceship     // <=>
	Shl           // <<
	Shr           // >>
	LtLtLt        // <<< (kernel launch open)
	GtGtGt        // >>> (kernel launch close)
	Amp           // &
	Pipe          // |
	Caret         // ^
	Tilde         // ~
	AndAnd        // &&
	OrOr          // ||
	Question      // ?
	Colon         // :
	ColonColon    // ::
	Semicolon     // ;
	Comma         // ,
	Dot           // .
	DotStar       // .*
	Arrow         // ->
	ArrowStar     // ->*
	Ellipsis      // ...
	LParen        // (
	RParen        // )
	LBrace        // {
	RBrace        // }
	LBracket      // [
	RBracket      // ]
	Hash          // #
	HashHash      // ##
	Backslash     // stray '\' outside a line splice
)

var kindNames = [...]string{
	Invalid: "Invalid", EOF: "EOF", Ident: "Ident",
	KwTemplate: "template", KwTypename: "typename", KwClass: "class", KwStruct: "struct",
	KwUnion: "union", KwEnum: "enum", KwNamespace: "namespace", KwExtern: "extern",
	KwUsing: "using", KwTypedef: "typedef", KwConst: "const", KwVolatile: "volatile",
	KwOperator: "operator",
	Number:     "Number", StringLit: "StringLit", CharLit: "CharLit",
	Plus: "+", Minus: "-", Star: "*", Slash: "/", Percent: "%", Assign: "=",
	PlusAssign: "+=", MinusAssign: "-=", StarAssign: "*=", SlashAssign: "/=", PercentAssign: "%=",
	AmpAssign: "&=", PipeAssign: "|=", CaretAssign: "^=", ShlAssign: "<<=", ShrAssign: ">>=",
	PlusPlus: "++", MinusMinus: "--", EqEq: "==", Bang: "!", BangEq: "!=",
	Lt: "<", LtEq: "<=", Gt: ">", GtEq: ">=", Spaceship: "<=>", Shl: "<<", Shr: ">>",
	LtLtLt: "<<<", GtGtGt: ">>>", Amp: "&", Pipe: "|", Caret: "^", Tilde: "~",
	AndAnd: "&&", OrOr: "||", Question: "?", Colon: ":", ColonColon: "::", Semicolon: ";",
	Comma: ",", Dot: ".", DotStar: ".*", Arrow: "->", ArrowStar: "->*", Ellipsis: "...",
	LParen: "(", RParen: ")", LBrace: "{", RBrace: "}", LBracket: "[", RBracket: "]",
	Hash: "#", HashHash: "##", Backslash: "\\",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) && kindNames[k] != "" {
		return kindNames[k]
	}
	return "Kind(?)"
}
