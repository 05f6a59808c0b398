package tplmgr_test

import (
	"context"
	"fmt"
	"testing/fstest"

	"github.com/skosovsky/tplmgr"
	"github.com/skosovsky/tplmgr/domtarget"
	"github.com/skosovsky/tplmgr/fetcher"
)

func exampleFS() fstest.MapFS {
	return fstest.MapFS{
		"views/greeting.html": {Data: []byte("Hello {{name}}!")},
		"views/item.html":     {Data: []byte("<li>{{item.title}}</li>")},
	}
}

func ExampleNew() {
	m, err := tplmgr.New(map[string]string{
		"greeting": "/greeting.html",
	}, fetcher.NewFSFetcher(exampleFS(), "views"))
	if err != nil {
		panic(err)
	}
	defer m.Close()

	if err := m.Wait(context.Background()); err != nil {
		panic(err)
	}
	out, _ := m.Render("greeting", map[string]any{"name": "World"})
	fmt.Println(out)
	// Output: Hello World!
}

func ExampleManager_RenderInTarget() {
	m, err := tplmgr.New(map[string]string{
		"item": "/item.html",
	}, fetcher.NewFSFetcher(exampleFS(), "views"))
	if err != nil {
		panic(err)
	}
	defer m.Close()

	doc, _ := domtarget.ParseString(`<ul id="list"></ul>`)
	if err := m.Fetch(context.Background(), "item"); err != nil {
		panic(err)
	}
	for _, title := range []string{"one", "two"} {
		vars := map[string]any{"item": map[string]any{"title": title}}
		if err := m.RenderInTarget("item", vars, doc.Select("#list")); err != nil {
			panic(err)
		}
	}
	inner, _ := doc.InnerHTML("#list")
	fmt.Println(inner)
	// Output: <li>one</li><li>two</li>
}

func ExampleVarsFromStruct() {
	type page struct {
		Name string `tpl:"name"`
	}
	vars, _ := tplmgr.VarsFromStruct(page{Name: "Ada"})
	r, _ := tplmgr.NewCompiler().Compile("greeting", "Hello {{name}}!")
	out, _ := r.Render(vars)
	fmt.Println(out)
	// Output: Hello Ada!
}
