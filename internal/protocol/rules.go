// File: internal/protocol/rules.go
package protocol

import "regexp"

// rawAddressPattern matches bare contract addresses used as incident names.
// These carry no brand information and are excluded from every bucket.
var rawAddressPattern = regexp.MustCompile(`^0x[a-fA-F0-9]{10,}$`)

// denyTerms are generic placeholder names; any incident name containing one
// (case-insensitive) is excluded from the ranking.
var denyTerms = []string{"unverified", "unknown", "null", "mev", "wallet"}

// exactNames maps irregular incident names to their canonical label before
// any heuristic runs. These are cases the suffix/substring rules would
// mangle, mostly stylized capitalization and tickers.
var exactNames = map[string]string{
	"bZx":             "bZx",
	"dYdX":            "dYdX",
	"AlchemixFinance": "Alchemix Finance",
	"Opyn":            "Opyn Protocol",
	"pNetwork":        "pNetwork",
	"GMX":             "GMX",
	"BEAN":            "Bean Protocol",
	"FEI+TRIBE":       "Fei Protocol",
	"CREAM":           "Cream Finance",
	"PAID":            "PAID Network",
	"DODO":            "DODO Exchange",
	"ENS":             "ENS",
	"PancakeBunny":    "PancakeBunny",
	"BurgerSwap":      "BurgerSwap",
	"ForceDAO":        "ForceDAO",
	"Grim Finance":    "Grim Finance",
	"88mph":           "88mph",
	"Orion Protocol":  "Orion Protocol",
}

// versionTag strips trailing version markers ("v2", " V1.5") from names.
var versionTag = regexp.MustCompile(`\s?[vV]\d+(\.\d+)?`)

// suffixPatterns remove common trailing qualifier words so that
// "Example Finance" and "Example Protocol" land in the same bucket.
// Applied in order.
var suffixPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\s+Protocol$`),
	regexp.MustCompile(`(?i)\s+Finance$`),
	regexp.MustCompile(`(?i)\s+DAO$`),
	regexp.MustCompile(`(?i)\s+DeFi$`),
	regexp.MustCompile(`(?i)\s+NFT$`),
	regexp.MustCompile(`(?i)\s+Swap$`),
	regexp.MustCompile(`(?i)\s+Bridge$`),
	regexp.MustCompile(`(?i)\s+Exchange$`),
	regexp.MustCompile(`(?i)\s+Capital$`),
	regexp.MustCompile(`(?i)\s+Network$`),
}

// tokenSplitter breaks a cleaned name into components.
var tokenSplitter = regexp.MustCompile(`[\s_\-()]`)

// categoryLabels collapse incidents whose name is purely generic into one
// category bucket instead of a per-brand one. A token must equal the
// category term exactly; substring matching here would swallow brand names
// like Uniswap or SushiSwap before the brand table gets a chance.
var categoryLabels = map[string]string{
	"bridge": "Bridge Protocol",
	"swap":   "Swap Protocol",
	"lend":   "Lending Protocol",
	"dao":    "DAO Governance",
}

// nftBrands are collectible projects that get merged into a single bucket;
// individually they are one-off incidents that would only add noise.
var nftBrands = []string{
	"bayc", "bored ape", "azuki", "doodles", "moonbirds", "pudgy", "cryptopunk", "milady",
}

// brandRule maps a short name fragment to a canonical brand label.
type brandRule struct {
	fragment string
	label    string
}

// brandRules is matched after the category heuristics. Order matters: a name
// containing two fragments resolves to whichever rule appears first, and the
// slice order is the documented tie-break (kept from the source data; no
// stricter semantics are implied).
var brandRules = []brandRule{
	{"uni", "Uniswap"},
	{"sushi", "SushiSwap"},
	{"pancake", "PancakeSwap"},
	{"curve", "Curve Finance"},
	{"balancer", "Balancer"},
	{"aave", "Aave"},
	{"compound", "Compound"},
	{"maker", "MakerDAO"},
	{"weth", "Wrapped ETH"},
	{"yearn", "Yearn Finance"},
	{"kyber", "Kyber Network"},
	{"synthetix", "Synthetix"},
	{"0x", "0x Protocol"},
	{"cream", "Cream Finance"},
	{"harvest", "Harvest Finance"},
	{"bancor", "Bancor"},
	{"parity", "Parity"},
	{"beanstalk", "Beanstalk"},
	{"ronin", "Ronin Bridge"},
	{"badger", "BadgerDAO"},
	{"cover", "Cover Protocol"},
	{"pickle", "Pickle Finance"},
	{"dforce", "dForce"},
	{"lend", "LendHub"},
	{"nomad", "Nomad Bridge"},
	{"poly", "Polygon"},
	{"harmony", "Harmony"},
	{"rari", "Rari Capital"},
	{"bsc", "Binance Smart Chain"},
	{"ftx", "FTX"},
	{"euler", "Euler Finance"},
	{"mango", "Mango Markets"},
	{"deus", "Deus Finance"},
	{"fei", "Fei Protocol"},
}
