package diag

import (
	"fmt"
)

type Code uint16

const (
	// Неизвестная ошибка
	UnknownCode Code = 0

	// Лексические
	LexInfo                     Code = 1000
	LexUnknownChar              Code = 1001
	LexUnterminatedString       Code = 1002
	LexUnterminatedChar         Code = 1003
	LexUnterminatedBlockComment Code = 1004
	LexUnterminatedRawString    Code = 1005
	LexNonNFCIdentifier         Code = 1006

	// Препроцессор
	PPInfo                  Code = 2000
	PPUnknownDirective      Code = 2001
	PPMacroRedefined        Code = 2002
	PPBadDefine             Code = 2003
	PPUnterminatedArgs      Code = 2004
	PPArgCount              Code = 2005
	PPBadPaste              Code = 2006
	PPBadStringify          Code = 2007
	PPIfSyntax              Code = 2008
	PPUnbalancedConditional Code = 2009
	PPUnterminatedCond      Code = 2010
	PPErrorDirective        Code = 2011
	PPWarningDirective      Code = 2012
	PPBadInclude            Code = 2013
	PPIncludeNotFound       Code = 2014
	PPIncludeDepth          Code = 2015
	PPBadLine               Code = 2016
	PPUndefBuiltin          Code = 2017
	PPDivByZero             Code = 2018

	// Разбор объявлений и вызовов ядер
	SynInfo                 Code = 3000
	SynUnexpectedToken      Code = 3001
	SynUnclosedDelimiter    Code = 3002
	SynExpectIdentifier     Code = 3003
	SynUnsupportedType      Code = 3004
	SynMalformedKernelCall  Code = 3005
	SynCannotDeduceTemplate Code = 3006
	SynUnknownKernel        Code = 3007
	SynBadTemplateArgs      Code = 3008

	// Ввод-вывод
	IOInfo          Code = 4000
	IOLoadFileError Code = 4001
	IOWriteError    Code = 4002

	// Манглинг и артефакт
	AbiInfo            Code = 5000
	AbiUnsupportedType Code = 5001
	AbiSymbolNotFound  Code = 5002
	AbiSymbolBytes     Code = 5003

	// Проектный манифест
	PrjInfo            Code = 6000
	PrjManifestInvalid Code = 6001
	PrjUnitInvalid     Code = 6002
)

var codeDescription = map[Code]string{
	UnknownCode:                 "Unknown error",
	LexInfo:                     "Lexical information",
	LexUnknownChar:              "Unknown character",
	LexUnterminatedString:       "Unterminated string literal",
	LexUnterminatedChar:         "Unterminated character literal",
	LexUnterminatedBlockComment: "Unterminated block comment",
	LexUnterminatedRawString:    "Unterminated raw string literal",
	LexNonNFCIdentifier:         "Identifier is not in Normalization Form C",
	PPInfo:                      "Preprocessor information",
	PPUnknownDirective:          "Unknown preprocessing directive",
	PPMacroRedefined:            "Macro redefined",
	PPBadDefine:                 "Malformed macro definition",
	PPUnterminatedArgs:          "Unterminated macro argument list",
	PPArgCount:                  "Wrong number of macro arguments",
	PPBadPaste:                  "Token paste does not form a valid token",
	PPBadStringify:              "'#' is not followed by a macro parameter",
	PPIfSyntax:                  "Invalid expression in conditional directive",
	PPUnbalancedConditional:     "Conditional directive without matching #if",
	PPUnterminatedCond:          "Unterminated conditional directive",
	PPErrorDirective:            "#error directive",
	PPWarningDirective:          "#warning directive",
	PPBadInclude:                "Malformed #include",
	PPIncludeNotFound:           "Included file not found",
	PPIncludeDepth:              "#include nested too deeply",
	PPBadLine:                   "Malformed #line directive",
	PPUndefBuiltin:              "Undefining a builtin macro",
	PPDivByZero:                 "Division by zero in preprocessor expression",
	SynInfo:                     "Syntax information",
	SynUnexpectedToken:          "Unexpected token",
	SynUnclosedDelimiter:        "Unclosed delimiter",
	SynExpectIdentifier:         "Expected identifier",
	SynUnsupportedType:          "Unsupported parameter type",
	SynMalformedKernelCall:      "Malformed kernel call",
	SynCannotDeduceTemplate:     "Kernel template arguments cannot be deduced",
	SynUnknownKernel:            "Unknown kernel template",
	SynBadTemplateArgs:          "Malformed template argument list",
	IOInfo:                      "I/O information",
	IOLoadFileError:             "Failed to load file",
	IOWriteError:                "Failed to write file",
	AbiInfo:                     "ABI information",
	AbiUnsupportedType:          "Type cannot be mangled",
	AbiSymbolNotFound:           "Kernel symbol not found in artifact",
	AbiSymbolBytes:              "Kernel symbol bytes cannot be read",
	PrjInfo:                     "Project information",
	PrjManifestInvalid:          "Invalid drai.toml",
	PrjUnitInvalid:              "Invalid [[unit]] entry",
}

func (c Code) ID() string {
	switch ic := int(c); {
	case ic >= 1000 && ic < 2000:
		return fmt.Sprintf("LEX%04d", ic)
	case ic >= 2000 && ic < 3000:
		return fmt.Sprintf("PP%04d", ic)
	case ic >= 3000 && ic < 4000:
		return fmt.Sprintf("SYN%04d", ic)
	case ic >= 4000 && ic < 5000:
		return fmt.Sprintf("IO%04d", ic)
	case ic >= 5000 && ic < 6000:
		return fmt.Sprintf("ABI%04d", ic)
	case ic >= 6000 && ic < 7000:
		return fmt.Sprintf("PRJ%04d", ic)
	}
	return "E0000"
}

func (c Code) Title() string {
	desc, ok := codeDescription[c]
	if !ok {
		return codeDescription[UnknownCode]
	}
	return desc
}

func (c Code) String() string {
	return fmt.Sprintf("[%s]: %s", c.ID(), c.Title())
}
