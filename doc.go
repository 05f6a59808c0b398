// Package tplmgr loads HTML template fragments from named locations, compiles them
// into renderers with {{ name }} interpolation, caches the result and renders on demand,
// optionally appending the output to a Target such as a node of an HTML document.
//
// A Manager is built from a name -> location map and a fetcher.Fetcher. It starts
// fetching every template immediately; Wait, Loaded or WithOnLoaded report when all
// of them are cached. Render returns output only for cached templates; RenderAsync,
// RenderInTarget and RenderSync cover the not-yet-cached case.
package tplmgr
