package machine

import (
	"strings"
)

// computeLCCA returns the least common compound ancestor path of source and target paths.
func computeLCCA(sourcePath, targetPath string) string {
	source := strings.Split(sourcePath, ".")
	target := strings.Split(targetPath, ".")

	minLen := len(source)
	if len(target) < minLen {
		minLen = len(target)
	}

	lcaIndex := 0
	for lcaIndex < minLen && source[lcaIndex] == target[lcaIndex] {
		lcaIndex++
	}

	if lcaIndex == 0 {
		return "" // No common ancestor
	}

	return strings.Join(source[:lcaIndex], ".")
}

// getAncestors returns all ancestor paths of a leaf path (including self).
func getAncestors(leafPath string) []string {
	segments := strings.Split(leafPath, ".")
	ancestors := make([]string, len(segments))

	current := ""
	for i, seg := range segments {
		if current != "" {
			current += "."
		}
		current += seg
		ancestors[i] = current
	}
	return ancestors
}

// getExitStates returns the states to exit: innermost to LCCA (reverse for execution).
func getExitStates(sourcePath, lccaPath string) []string {
	if lccaPath == "" {
		return []string{sourcePath}
	}

	source := strings.Split(sourcePath, ".")
	if !strings.HasPrefix(sourcePath, lccaPath+".") {
		return nil
	}

	lccaSegs := strings.Split(lccaPath, ".")
	exitSegs := source[len(lccaSegs):]

	paths := []string{}
	current := lccaPath
	for _, seg := range exitSegs {
		if current != "" {
			current += "."
		}
		current += seg
		paths = append(paths, current)
	}

	return paths
}

// getEntryStates returns the states to enter: LCCA to target (outer first).
func getEntryStates(lccaPath, targetPath string) []string {
	if lccaPath == "" {
		return []string{targetPath}
	}

	lccaSegs := strings.Split(lccaPath, ".")
	targetSegs := strings.Split(targetPath, ".")

	if len(targetSegs) <= len(lccaSegs) {
		return nil
	}

	entrySegs := targetSegs[len(lccaSegs):]

	paths := []string{}
	current := lccaPath
	for _, seg := range entrySegs {
		if current != "" {
			current += "."
		}
		current += seg
		paths = append(paths, current)
	}

	return paths
}

