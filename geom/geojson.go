package geom

import "encoding/json"

// GeoJSONFeatureCollection represents a GeoJSON FeatureCollection
type GeoJSONFeatureCollection struct {
	Type     string           `json:"type"`
	Features []GeoJSONFeature `json:"features"`
}

// GeoJSONFeature represents a GeoJSON Feature. Properties decode into generic
// JSON on input; responses assign typed values directly.
type GeoJSONFeature struct {
	Type       string          `json:"type"`
	Properties any             `json:"properties"`
	Geometry   GeoJSONGeometry `json:"geometry"`
}

// GeoJSONGeometry represents a GeoJSON Geometry object. Point coordinates are
// normalized into a single-element position list so that Point and LineString
// features can be consumed uniformly.
type GeoJSONGeometry struct {
	Type        string
	Coordinates [][]float64
}

func (g *GeoJSONGeometry) UnmarshalJSON(data []byte) error {
	var raw struct {
		Type        string          `json:"type"`
		Coordinates json.RawMessage `json:"coordinates"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	g.Type = raw.Type

	if raw.Type == "Point" {
		var pos []float64
		if err := json.Unmarshal(raw.Coordinates, &pos); err != nil {
			return err
		}
		g.Coordinates = [][]float64{pos}
		return nil
	}

	return json.Unmarshal(raw.Coordinates, &g.Coordinates)
}

func (g GeoJSONGeometry) MarshalJSON() ([]byte, error) {
	if g.Type == "Point" && len(g.Coordinates) == 1 {
		return json.Marshal(struct {
			Type        string    `json:"type"`
			Coordinates []float64 `json:"coordinates"`
		}{g.Type, g.Coordinates[0]})
	}
	return json.Marshal(struct {
		Type        string      `json:"type"`
		Coordinates [][]float64 `json:"coordinates"`
	}{g.Type, g.Coordinates})
}
