package osmdigest_test

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/osmdigest/osmdigest/extract"
	"github.com/osmdigest/osmdigest/richobj"
	"github.com/osmdigest/osmdigest/store"
	"github.com/osmdigest/osmdigest/validator"
)

func filepathTempDir() (string, error) {
	return os.MkdirTemp("", "osmdigest-example-*")
}

const exampleXML = `<?xml version="1.0" encoding="UTF-8"?>
<osm version="0.6" generator="example">
  <node id="1" lat="51.5" lon="-0.1" version="1">
    <tag k="amenity" v="cafe"/>
  </node>
  <node id="2" lat="51.6" lon="-0.2" version="1"/>
  <way id="10" version="1">
    <nd ref="1"/>
    <nd ref="2"/>
    <tag k="highway" v="residential"/>
  </way>
</osm>`

func Example_validateAndConvert() {
	dir, err := filepathTempDir()
	if err != nil {
		fmt.Println("error:", err)
		return
	}
	dst := filepath.Join(dir, "example.osmdigest")

	var final struct {
		Primitives int64
	}
	for p, err := range store.Convert(context.Background(), dst, validator.Records(strings.NewReader(exampleXML))) {
		if err != nil {
			fmt.Println("convert error:", err)
			return
		}
		final.Primitives = p.Primitives
	}
	fmt.Println("primitives:", final.Primitives)
	// Output: primitives: 3
}

func Example_richWay() {
	dir, err := filepathTempDir()
	if err != nil {
		fmt.Println("error:", err)
		return
	}
	dst := filepath.Join(dir, "example.osmdigest")
	for _, err := range store.Convert(context.Background(), dst, validator.Records(strings.NewReader(exampleXML))) {
		if err != nil {
			fmt.Println("convert error:", err)
			return
		}
	}

	st, err := store.Open(dst)
	if err != nil {
		fmt.Println("open error:", err)
		return
	}
	defer st.Close()

	way, err := st.Way(10)
	if err != nil {
		fmt.Println("way error:", err)
		return
	}
	rw, err := richobj.ResolveWay(st, way)
	if err != nil {
		fmt.Println("resolve error:", err)
		return
	}
	fmt.Println("resolved nodes:", len(rw.Nodes))
	// Output: resolved nodes: 2
}

func Example_extractBoundingBox() {
	dir, err := filepathTempDir()
	if err != nil {
		fmt.Println("error:", err)
		return
	}
	src := filepath.Join(dir, "src.osmdigest")
	for _, err := range store.Convert(context.Background(), src, validator.Records(strings.NewReader(exampleXML))) {
		if err != nil {
			fmt.Println("convert error:", err)
			return
		}
	}

	srcStore, err := store.Open(src)
	if err != nil {
		fmt.Println("open error:", err)
		return
	}
	defer srcStore.Close()

	dst := filepath.Join(dir, "out.osmdigest")
	for _, err := range extract.Extract(context.Background(), srcStore, dst, -0.3, -0.05, 51.4, 51.7) {
		if err != nil {
			fmt.Println("extract error:", err)
			return
		}
	}

	out, err := store.Open(dst)
	if err != nil {
		fmt.Println("open error:", err)
		return
	}
	defer out.Close()
	hdr, err := out.Osm()
	if err != nil {
		fmt.Println("header error:", err)
		return
	}
	fmt.Println(strings.HasSuffix(hdr.Generator, " / extract"))
	// Output: true
}
