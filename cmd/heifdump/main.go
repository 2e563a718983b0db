// Command heifdump reads a HEIF/ISOBMFF file and prints its box structure,
// or, with -model, the parsed item/property/reference graph.
package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"

	heif "github.com/tetsuo/heif"
	"github.com/tetsuo/heif/model"
)

// Format specifies the output format.
type Format int

const (
	FormatText Format = iota
	FormatJSON
)

// BoxNode is a box in the tree structure.
type BoxNode struct {
	Type     string    `json:"type"`
	Size     uint64    `json:"size"`
	Version  *uint8    `json:"version,omitempty"`
	Flags    *uint32   `json:"flags,omitempty"`
	DataLen  *int      `json:"dataLength,omitempty"`
	Children []BoxNode `json:"children,omitempty"`
}

func main() {
	formatFlag := flag.String("format", "text", "output format: text (default), json")
	modelFlag := flag.Bool("model", false, "print the parsed item/property/reference graph instead of the raw box tree")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "usage: %s [--format=text|json] [--model] <file.heic>\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	if flag.NArg() < 1 {
		flag.Usage()
		os.Exit(1)
	}

	format := FormatText
	switch strings.ToLower(*formatFlag) {
	case "json":
		format = FormatJSON
	case "text":
		format = FormatText
	default:
		fmt.Fprintf(os.Stderr, "unknown format: %s\n", *formatFlag)
		os.Exit(1)
	}

	data, err := os.ReadFile(flag.Arg(0))
	if err != nil {
		fmt.Fprintf(os.Stderr, "error reading file: %v\n", err)
		os.Exit(1)
	}

	if *modelFlag {
		dumpModel(data, format)
		return
	}
	dumpBoxes(data, format)
}

func dumpBoxes(data []byte, format Format) {
	boxes, err := heif.DecodeFile(bytes.NewReader(data))
	if err != nil {
		fmt.Fprintf(os.Stderr, "decode error: %v\n", err)
		os.Exit(1)
	}
	nodes := make([]BoxNode, len(boxes))
	for i, b := range boxes {
		nodes[i] = boxNode(b)
	}
	printTree(nodes, format)
}

func boxNode(b *heif.Box) BoxNode {
	n := BoxNode{Type: string(b.Type[:]), Size: b.Size}
	if heif.IsFullBox(b.Type) {
		v, f := b.Version, b.Flags
		n.Version, n.Flags = &v, &f
	}
	switch {
	case b.Children != nil:
		n.Children = make([]BoxNode, len(b.Children))
		for i, c := range b.Children {
			n.Children[i] = boxNode(c)
		}
	case b.Body != nil:
		l := len(b.Body)
		n.DataLen = &l
	}
	return n
}

// printTree prints the tree in the specified format.
func printTree(nodes []BoxNode, format Format) {
	switch format {
	case FormatJSON:
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(nodes); err != nil {
			fmt.Fprintf(os.Stderr, "error encoding JSON: %v\n", err)
		}
	case FormatText:
		for _, node := range nodes {
			printNodeText(node, 0)
		}
	}
}

func printNodeText(node BoxNode, depth int) {
	indent := strings.Repeat("  ", depth)
	fmt.Printf("%s[%s] size=%d", indent, node.Type, node.Size)
	if node.Version != nil {
		fmt.Printf(" v=%d", *node.Version)
	}
	if node.Flags != nil {
		fmt.Printf(" flags=0x%06x", *node.Flags)
	}
	if node.DataLen != nil {
		fmt.Printf(" dataLen=%d", *node.DataLen)
	}
	fmt.Println()
	for _, c := range node.Children {
		printNodeText(c, depth+1)
	}
}

// dumpModel loads data into a model.File and prints its item/property/group
// graph, independent of the raw box layout.
func dumpModel(data []byte, format Format) {
	f, err := heif.Load(data, heif.LoadOptions{Preload: heif.LoadMetadata})
	if err != nil {
		fmt.Fprintf(os.Stderr, "load error: %v\n", err)
		os.Exit(1)
	}

	if format == FormatJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		enc.Encode(summarize(f))
		return
	}

	fmt.Printf("brand=%s version=%d compatible=%v\n", f.MajorBrand, f.MinorVersion, f.CompatibleBrands)
	if primary, err := f.PrimaryItem(); err == nil {
		fmt.Printf("primary item: %d\n", primary.ID())
	}
	for _, it := range f.Items() {
		fmt.Printf("item %d: kind=%v fourcc=%s", it.ID(), it.Kind, it.FourCC)
		if it.Kind == model.ItemCodedImage || it.Kind == model.ItemDerivedImage {
			fmt.Printf(" %dx%d hidden=%v", it.ImageItem.Width, it.ImageItem.Height, it.ImageItem.Hidden)
		}
		fmt.Println()
		for _, a := range it.Properties() {
			fmt.Printf("  property %d: kind=%v essential=%v\n", a.Property.ID(), a.Property.Kind, a.Essential)
		}
		for _, t := range it.ImageItem.Thumbnails() {
			fmt.Printf("  thumbnail: item %d\n", t.ID())
		}
	}
	for _, t := range f.Tracks() {
		fmt.Printf("track %d: handler=%v samples=%d\n", t.ID(), t.Handler, len(t.Samples()))
	}
	for _, g := range f.Groups() {
		ids := make([]uint32, 0, len(g.Members()))
		for _, m := range g.Members() {
			if m.Item != nil {
				ids = append(ids, uint32(m.Item.ID()))
			}
		}
		fmt.Printf("group %d: type=%s items=%v\n", g.ID(), g.Type, ids)
	}
}

type modelSummary struct {
	MajorBrand string       `json:"majorBrand"`
	Items      []itemSummary `json:"items"`
}

type itemSummary struct {
	ID     uint32 `json:"id"`
	Kind   string `json:"kind"`
	FourCC string `json:"fourcc"`
}

func summarize(f *model.File) modelSummary {
	s := modelSummary{MajorBrand: f.MajorBrand}
	for _, it := range f.Items() {
		s.Items = append(s.Items, itemSummary{
			ID:     uint32(it.ID()),
			Kind:   fmt.Sprint(it.Kind),
			FourCC: it.FourCC,
		})
	}
	return s
}
