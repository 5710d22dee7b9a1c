// internal/browser/dom/xpath.go
package dom

import (
	"fmt"
	"strings"
)

// XPath generates a short, stable XPath for el. An id attribute anchors the
// path and stops the walk.
func XPath(el Element) string {
	if el == nil {
		return ""
	}
	var path []string
	for n := el; n != nil; n = n.Parent() {
		tag := n.Tag()
		if tag == "" {
			continue
		}
		if id, ok := n.Attr("id"); ok && id != "" {
			path = append(path, fmt.Sprintf(`//*[@id='%s']`, id))
			break
		}
		path = append(path, fmt.Sprintf("%s[%d]", tag, siblingIndex(n)))
	}
	if len(path) == 0 {
		return "/"
	}

	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}
	xpath := strings.Join(path, "/")
	if !strings.HasPrefix(xpath, "//*[@id=") {
		xpath = "/" + xpath
	}
	return xpath
}

// siblingIndex is the 1-based position of n among same-tag siblings.
func siblingIndex(n Element) int {
	parent := n.Parent()
	if parent == nil {
		return 1
	}
	index := 1
	for _, sib := range parent.Children() {
		if sib == n {
			break
		}
		if sib.Tag() == n.Tag() {
			index++
		}
	}
	return index
}
