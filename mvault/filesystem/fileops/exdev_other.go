//go:build !unix

package fileops

func isEXDEV(err error) bool {
	return false
}
