//go:build !surveydebug

package builder

const debugAssertions = false
