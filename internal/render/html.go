package render

import (
	"bytes"
	"fmt"
	"html/template"
	"io"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

// GeoJSON converts the figure traces to a feature collection. Line traces
// become LineStrings, every marker becomes a Point. Style goes to properties.
func GeoJSON(fig *Figure) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	for _, t := range fig.Traces {
		props := geojson.Properties{
			"name":        t.Name,
			"color":       t.Color,
			"show_legend": t.ShowLegend,
		}

		switch t.Mode {
		case Lines:
			ls := make(orb.LineString, 0, len(t.Lat))
			for i := range t.Lat {
				ls = append(ls, orb.Point{t.Lon[i], t.Lat[i]})
			}
			f := geojson.NewFeature(ls)
			f.Properties = props.Clone()
			f.Properties["width"] = t.LineWidth
			fc.Append(f)
		case Markers:
			for i := range t.Lat {
				f := geojson.NewFeature(orb.Point{t.Lon[i], t.Lat[i]})
				f.Properties = props.Clone()
				f.Properties["size"] = t.MarkerSize
				fc.Append(f)
			}
		}
	}
	return fc
}

var page = template.Must(template.New("map").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>{{.Layout.Title}}</title>
<link rel="stylesheet" href="https://unpkg.com/leaflet@1.9.4/dist/leaflet.css">
<script src="https://unpkg.com/leaflet@1.9.4/dist/leaflet.js"></script>
<style>
  html, body { margin: 0; height: 100%; font-family: "{{.Layout.FontFamily}}"; color: {{.Layout.FontColor}}; font-size: {{.Layout.FontSize}}px; }
  #map { width: {{.Layout.Width}}px; height: {{.Layout.Height}}px; }
  #title { position: absolute; top: 3%; left: 3%; z-index: 1000; font-size: {{.Layout.TitleFontSize}}px; font-weight: bold; }
</style>
</head>
<body>
<div id="title">{{.Layout.Title}}</div>
<div id="map"></div>
<script>
const data = {{.Data}};
const map = L.map("map", { zoomSnap: 0.1 }).setView([{{.Layout.Center.Lat}}, {{.Layout.Center.Lon}}], {{.Layout.Zoom}});
L.tileLayer("https://{s}.tile.openstreetmap.org/{z}/{x}/{y}.png", {
  maxZoom: 19,
  attribution: "&copy; OpenStreetMap contributors"
}).addTo(map);
L.geoJSON(data, {
  style: f => ({ color: f.properties.color, weight: f.properties.width }),
  pointToLayer: (f, latlng) => L.circleMarker(latlng, {
    radius: f.properties.size / 2,
    color: f.properties.color,
    fillColor: f.properties.color,
    fillOpacity: 1
  }).bindTooltip(f.properties.name)
}).addTo(map);
const legend = L.control({ position: "topright" });
legend.onAdd = () => {
  const div = L.DomUtil.create("div");
  div.style.background = "white";
  div.style.padding = "4px 8px";
  div.innerHTML = data.features
    .filter(f => f.properties.show_legend)
    .map(f => '<span style="color:' + f.properties.color + '">&#9679;</span> ' + f.properties.name)
    .join("<br>");
  return div;
};
legend.addTo(map);
</script>
</body>
</html>
`))

// WriteHTML writes the interactive Leaflet view of fig.
func WriteHTML(w io.Writer, fig *Figure) error {
	data, err := GeoJSON(fig).MarshalJSON()
	if err != nil {
		return fmt.Errorf("encode geojson: %w", err)
	}

	var buf bytes.Buffer
	err = page.Execute(&buf, struct {
		Layout Layout
		Data   template.JS
	}{fig.Layout, template.JS(data)})
	if err != nil {
		return fmt.Errorf("render html: %w", err)
	}
	_, err = w.Write(buf.Bytes())
	return err
}
