// Package textutil holds the small string helpers used to turn file names into
// presentable titles and to keep user text inside YouTube's field limits.
//
// Titles are cased with golang.org/x/text/cases so words already in capitals
// (4K, NASA) survive. All length checks count runes, not bytes.
package textutil
