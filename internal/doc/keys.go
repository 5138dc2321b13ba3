package doc

import (
	"path"
	"path/filepath"
	"strings"
)

// ModuleKey normalizes a relative file path into a module entry key.
func ModuleKey(relPath string) string {
	key := filepath.ToSlash(relPath)
	key = strings.TrimPrefix(key, "./")
	return path.Clean(key)
}

// ClassKey returns the entry key of a class defined in moduleKey.
func ClassKey(moduleKey, class string) string {
	return moduleKey + "::" + class
}

// MethodKey returns the entry key of a method of the class identified by classKey.
func MethodKey(classKey, method string) string {
	return classKey + "#" + method
}

// FunctionKey returns the entry key of a module-level function.
func FunctionKey(moduleKey, function string) string {
	return moduleKey + "::" + function
}

// ModuleName converts a module key into its dotted import name.
// "pkg/sub/mod.py" becomes "pkg.sub.mod" and "pkg/__init__.py" becomes "pkg".
func ModuleName(moduleKey string) string {
	name := strings.TrimSuffix(moduleKey, path.Ext(moduleKey))
	name = strings.TrimSuffix(name, "/__init__")
	if name == "__init__" {
		return ""
	}
	return strings.ReplaceAll(name, "/", ".")
}

// QualifiedName joins a module name and an in-module scope path.
func QualifiedName(moduleName, scoped string) string {
	switch {
	case moduleName == "":
		return scoped
	case scoped == "":
		return moduleName
	default:
		return moduleName + "." + scoped
	}
}

// FirstLine returns the first non-blank line of text, trimmed.
func FirstLine(text string) string {
	for _, line := range strings.Split(text, "\n") {
		if s := strings.TrimSpace(line); s != "" {
			return s
		}
	}
	return ""
}
