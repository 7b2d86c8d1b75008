package script

// locationBackgrounds maps known location names to gradient color pairs used
// as a backdrop fallback when no asset exists for the location.
var locationBackgrounds = map[string][]string{
	"forest_clearing": {"#228B22", "#90EE90"},
	"castle_hall":     {"#8B4513", "#DAA520"},
	"beach":           {"#87CEEB", "#F0E68C", "#FFE4B5"},
	"mountain":        {"#696969", "#C0C0C0"},
	"city":            {"#708090", "#2F4F4F"},
	"room":            {"#DEB887", "#F5DEB3"},
	"library":         {"#8B4513", "#DEB887"},
	"garden":          {"#9ACD32", "#98FB98"},
}

var defaultBackgrounds = []string{"#87CEEB", "#FFB6C1"}

// BackgroundsFor returns the fallback background colors for a location.
// Unknown locations get a default sky/pink pair.
func BackgroundsFor(location string) []string {
	if colors, ok := locationBackgrounds[location]; ok {
		return append([]string(nil), colors...)
	}
	return append([]string(nil), defaultBackgrounds...)
}
