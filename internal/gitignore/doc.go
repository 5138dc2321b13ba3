// Package gitignore matches paths against gitignore rules.
//
// Patterns follow https://git-scm.com/docs/gitignore and are evaluated with
// doublestar globs: rooted patterns (/build), directory-only patterns (build/),
// negation (!keep.py), ** wildcards and nested .gitignore files.
//
//	m := gitignore.New()
//	m.AddPattern("*.pyc")
//	m.AddPattern("!keep.pyc")
//	m.AddFromFile("/repo/src/.gitignore", "src")
//
//	if m.Match("src/build/out.py", false) {
//	    // ignored
//	}
package gitignore
