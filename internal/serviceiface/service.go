// Package serviceiface is the lifecycle contract the app manager drives.
// Services start in configured order and stop in reverse.
package serviceiface

type Service interface {
	Name() string
	Start() error
	Stop() error
}
