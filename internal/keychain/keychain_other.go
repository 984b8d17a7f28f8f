//go:build !darwin

package keychain

// NewSystemManager returns a MemoryManager on non-darwin platforms.
// The macOS Keychain is not available outside of macOS; items are held in
// memory only. Use SQLiteManager for a persistent store on these platforms.
func NewSystemManager() *MemoryManager {
	return NewMemoryManager()
}
