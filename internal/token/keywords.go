package token

// Only the keywords the declaration parser dispatches on get their own kind.
// Every other C++ keyword (int, static, return, ...) stays an Ident.
var keywords = map[string]Kind{
	"template":  KwTemplate,
	"typename":  KwTypename,
	"class":     KwClass,
	"struct":    KwStruct,
	"union":     KwUnion,
	"enum":      KwEnum,
	"namespace": KwNamespace,
	"extern":    KwExtern,
	"using":     KwUsing,
	"typedef":   KwTypedef,
	"const":     KwConst,
	"volatile":  KwVolatile,
	"operator":  KwOperator,
}

// LookupKeyword возвращает тип и bool если это ключевое слово.
func LookupKeyword(ident string) (Kind, bool) {
	k, ok := keywords[ident]
	return k, ok
}
