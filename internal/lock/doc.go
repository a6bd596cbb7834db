// Package lock serializes gfsave operations that share a configuration
// file.
//
// Every backup operation reloads the configuration, changes it and saves it
// again. Two such sequences running at once (a watch loop and a manual
// restore, say) would each overwrite the other's notes. Callers hold a
// named, machine-wide mutex from github.com/juju/mutex/v2 around each
// sequence; the name is derived from the configuration path, so different
// configuration files never contend.
//
//	l := lock.New(configPath)
//	err := l.Do(ctx, func() error {
//	    _, _, err := mgr.Create(note, backup.KindManual)
//	    return err
//	})
package lock
