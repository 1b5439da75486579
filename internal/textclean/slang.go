package textclean

import "strings"

// slangTable maps common Indonesian chat abbreviations, laughter variants and
// shorthands to their standard form. Keys are lowercase.
var slangTable = map[string]string{
	"gak":      "tidak",
	"ga":       "tidak",
	"nggak":    "tidak",
	"enggak":   "tidak",
	"gk":       "tidak",
	"g":        "tidak",
	"tdk":      "tidak",
	"yg":       "yang",
	"dgn":      "dengan",
	"dg":       "dengan",
	"utk":      "untuk",
	"u/":       "untuk",
	"krn":      "karena",
	"krna":     "karena",
	"karna":    "karena",
	"tp":       "tapi",
	"tpi":      "tapi",
	"sm":       "sama",
	"sma":      "sama",
	"jg":       "juga",
	"jga":      "juga",
	"bgt":      "banget",
	"bngt":     "banget",
	"bngtt":    "banget",
	"bgtt":     "banget",
	"bet":      "banget",
	"skrg":     "sekarang",
	"skr":      "sekarang",
	"skg":      "sekarang",
	"bsk":      "besok",
	"kmrn":     "kemarin",
	"kmrin":    "kemarin",
	"blm":      "belum",
	"blom":     "belum",
	"udh":      "sudah",
	"udah":     "sudah",
	"sdh":      "sudah",
	"sdah":     "sudah",
	"dah":      "sudah",
	"org":      "orang",
	"orng":     "orang",
	"org2":     "orang-orang",
	"kyk":      "kayak",
	"kek":      "kayak",
	"ky":       "kayak",
	"emg":      "memang",
	"emng":     "memang",
	"mmg":      "memang",
	"aja":      "saja",
	"aj":       "saja",
	"doang":    "saja",
	"doank":    "saja",
	"dng":      "dong",
	"donk":     "dong",
	"sih":      "sih",
	"si":       "sih",
	"loh":      "lho",
	"lo":       "lho",
	"kok":      "kok",
	"knp":      "kenapa",
	"knapa":    "kenapa",
	"gmn":      "gimana",
	"gmna":     "gimana",
	"gmana":    "gimana",
	"bgmn":     "bagaimana",
	"apaan":    "apa",
	"apa2":     "apa-apa",
	"dmn":      "dimana",
	"dmna":     "dimana",
	"kpn":      "kapan",
	"kapn":     "kapan",
	"brp":      "berapa",
	"brapa":    "berapa",
	"lg":       "lagi",
	"lgi":      "lagi",
	"lg2":      "lagi-lagi",
	"pake":     "pakai",
	"pk":       "pakai",
	"pke":      "pakai",
	"bs":       "bisa",
	"bsa":      "bisa",
	"hrs":      "harus",
	"hrus":     "harus",
	"msh":      "masih",
	"msih":     "masih",
	"klo":      "kalau",
	"kalo":     "kalau",
	"kl":       "kalau",
	"ato":      "atau",
	"atw":      "atau",
	"dr":       "dari",
	"dri":      "dari",
	"pd":       "pada",
	"pda":      "pada",
	"ke":       "ke",
	"k":        "ke",
	"abis":     "habis",
	"abs":      "habis",
	"hbs":      "habis",
	"btw":      "ngomong-ngomong",
	"fyi":      "untuk informasi",
	"thx":      "terima kasih",
	"tks":      "terima kasih",
	"mksh":     "terima kasih",
	"makasi":   "terima kasih",
	"makasih":  "terima kasih",
	"mksih":    "terima kasih",
	"pls":      "tolong",
	"pliss":    "tolong",
	"plisss":   "tolong",
	"gws":      "get well soon",
	"wkwk":     "haha",
	"wkwkwk":   "haha",
	"wkwkwkwk": "haha",
	"hahaha":   "haha",
	"hahahaha": "haha",
	"kwkwk":    "haha",
	"awkwk":    "haha",
	"xixi":     "haha",
	"hehe":     "haha",
	"hihi":     "haha",
	"hoho":     "haha",
	"huhu":     "sedih",
	"hiks":     "sedih",
}

// ExpandSlang replaces every whitespace-delimited token that has an entry in
// the slang table. Unknown tokens pass through unchanged, case preserved.
func ExpandSlang(text string) string {
	words := Tokenize(text)
	for i, word := range words {
		if standard, ok := LookupSlang(word); ok {
			words[i] = standard
		}
	}
	return strings.Join(words, " ")
}

// LookupSlang reports the standard form of a slang token. Matching ignores
// case.
func LookupSlang(word string) (string, bool) {
	standard, ok := slangTable[strings.ToLower(word)]
	return standard, ok
}
