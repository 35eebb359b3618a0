package pipeline

import (
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"sync/atomic"
)

// idMinter mints folder/project ids from a monotonic nonce plus a content
// hash. The nonce guarantees uniqueness without a central sequence; the
// hash keeps ids opaque and stable-length.
type idMinter struct {
	nonce atomic.Uint64
}

func newIDMinter() *idMinter {
	return &idMinter{}
}

func (m *idMinter) mint(prefix, workspaceID, name string) string {
	n := m.nonce.Add(1)
	sum := sha256.Sum256([]byte(workspaceID + "|" + name + "|" + strconv.FormatUint(n, 10)))
	return prefix + "_" + hex.EncodeToString(sum[:8])
}

func (m *idMinter) folderID(workspaceID, name string) string {
	return m.mint("fld", workspaceID, name)
}

func (m *idMinter) projectID(workspaceID, name string) string {
	return m.mint("prj", workspaceID, name)
}
