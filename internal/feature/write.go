package feature

import (
	"encoding/json"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/rotisserie/eris"
)

// coordPairRe matches an indented two-element numeric array so the pretty
// layout can keep each coordinate pair on its own line.
var coordPairRe = regexp.MustCompile(`\[\s+(-?\d+(?:\.\d+)?(?:[eE][+-]?\d+)?),\s+(-?\d+(?:\.\d+)?(?:[eE][+-]?\d+)?)\s+\]`)

// Filename derives the output filename for a place: commas stripped, spaces
// replaced by underscores, ".geojson" appended.
func Filename(placeName string) string {
	name := strings.TrimSpace(placeName)
	name = strings.ReplaceAll(name, ",", "")
	name = strings.ReplaceAll(name, " ", "_")
	return name + ".geojson"
}

// Write serializes a collection to dir/Filename(place). The compact form is
// the compatibility contract; pretty is a readable layout with one coordinate
// pair per line. Returns the written path.
func Write(dir, place string, fc *Collection, pretty bool) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", eris.Wrapf(err, "feature: create output dir %s", dir)
	}

	var (
		data []byte
		err  error
	)
	if pretty {
		data, err = marshalPretty(fc)
	} else {
		data, err = json.Marshal(fc)
	}
	if err != nil {
		return "", eris.Wrapf(err, "feature: encode %s", place)
	}

	path := filepath.Join(dir, Filename(place))
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", eris.Wrapf(err, "feature: write %s", path)
	}
	return path, nil
}

// marshalPretty indents the document and then folds each [lng, lat] pair back
// onto a single line.
func marshalPretty(fc *Collection) ([]byte, error) {
	data, err := json.MarshalIndent(fc, "", "  ")
	if err != nil {
		return nil, err
	}
	return coordPairRe.ReplaceAll(data, []byte("[$1, $2]")), nil
}
