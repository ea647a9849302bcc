package pricing

import (
	"errors"
	"strings"
)

var ErrUnknownState = errors.New("unknown state")

// StateCode is the two digit GST state code, e.g. "29" for Karnataka.
type StateCode string

type State struct {
	Code StateCode `json:"code"`
	Abbr string    `json:"abbr"`
	Name string    `json:"name"`
}

// States lists the GST state and union territory codes in use.
var States = []State{
	{"01", "JK", "Jammu and Kashmir"},
	{"02", "HP", "Himachal Pradesh"},
	{"03", "PB", "Punjab"},
	{"04", "CH", "Chandigarh"},
	{"05", "UK", "Uttarakhand"},
	{"06", "HR", "Haryana"},
	{"07", "DL", "Delhi"},
	{"08", "RJ", "Rajasthan"},
	{"09", "UP", "Uttar Pradesh"},
	{"10", "BR", "Bihar"},
	{"11", "SK", "Sikkim"},
	{"12", "AR", "Arunachal Pradesh"},
	{"13", "NL", "Nagaland"},
	{"14", "MN", "Manipur"},
	{"15", "MZ", "Mizoram"},
	{"16", "TR", "Tripura"},
	{"17", "ML", "Meghalaya"},
	{"18", "AS", "Assam"},
	{"19", "WB", "West Bengal"},
	{"20", "JH", "Jharkhand"},
	{"21", "OD", "Odisha"},
	{"22", "CG", "Chhattisgarh"},
	{"23", "MP", "Madhya Pradesh"},
	{"24", "GJ", "Gujarat"},
	{"26", "DN", "Dadra and Nagar Haveli and Daman and Diu"},
	{"27", "MH", "Maharashtra"},
	{"29", "KA", "Karnataka"},
	{"30", "GA", "Goa"},
	{"31", "LD", "Lakshadweep"},
	{"32", "KL", "Kerala"},
	{"33", "TN", "Tamil Nadu"},
	{"34", "PY", "Puducherry"},
	{"35", "AN", "Andaman and Nicobar Islands"},
	{"36", "TS", "Telangana"},
	{"37", "AP", "Andhra Pradesh"},
	{"38", "LA", "Ladakh"},
}

var stateAliases = map[string]StateCode{
	"orissa":                              "21",
	"pondicherry":                         "34",
	"uttaranchal":                         "05",
	"new delhi":                           "07",
	"nct of delhi":                        "07",
	"national capital territory of delhi": "07",
	"daman and diu":                       "26",
	"dadra and nagar haveli":              "26",
	"andaman and nicobar":                 "35",
}

var stateIndex = buildStateIndex()

func buildStateIndex() map[string]State {
	idx := make(map[string]State, len(States)*3+len(stateAliases))
	byCode := make(map[StateCode]State, len(States))
	for _, s := range States {
		byCode[s.Code] = s
		idx[string(s.Code)] = s
		idx[strings.ToLower(s.Abbr)] = s
		idx[normalizeStateName(s.Name)] = s
	}
	for alias, code := range stateAliases {
		idx[alias] = byCode[code]
	}
	return idx
}

func normalizeStateName(v string) string {
	v = strings.ToLower(strings.TrimSpace(v))
	v = strings.ReplaceAll(v, "&", " and ")
	return strings.Join(strings.Fields(v), " ")
}

// LookupState resolves a GST code ("29", "9"), an abbreviation ("KA") or a
// display name ("karnataka") to its canonical state.
func LookupState(v string) (State, bool) {
	key := normalizeStateName(v)
	if len(key) == 1 && key[0] >= '0' && key[0] <= '9' {
		key = "0" + key
	}
	s, ok := stateIndex[key]
	return s, ok
}

// ResolveStateCode is LookupState returning only the code.
func ResolveStateCode(v string) (StateCode, error) {
	s, ok := LookupState(v)
	if !ok {
		return "", ErrUnknownState
	}
	return s.Code, nil
}

func (c StateCode) Valid() bool {
	s, ok := stateIndex[string(c)]
	return ok && s.Code == c
}

func (c StateCode) Name() string {
	if s, ok := stateIndex[string(c)]; ok {
		return s.Name
	}
	return ""
}
