// Package swrcache is a cache-aside layer over a pluggable byte store.
//
// Fetch reads a key, classifies the stored entry by age and either returns it,
// returns it while refreshing it in the background (stale-while-revalidate),
// or computes it inline. Values go through a Schema on every write and read:
// the schema encodes, validates and describes the value's shape, and that
// shape can version keys so a type change never reads entries written for
// the old type.
//
// Components:
//   - provider.Provider: byte store with TTLs and prefix listing
//     (memory, Redis, Valkey, Ristretto, BigCache, SQLite).
//   - background.Executor: runs refreshes after the caller returned.
//   - schema.Schema[V]: codec + validation + canonical shape.
//
// Keys:
//
//	[<namespace>:][<version>:]<key>
//
// Stored entries (JSON format):
//
//	{"v":<value>,"t":<computed at, unix ms>}
//
// Typical use:
//
//	users := schema.New[User]()
//	c, _ := swrcache.New(swrcache.Options{
//	    Provider: redisProvider,
//	    Executor: background.NewPool(4, 1024),
//	})
//	u, err := swrcache.Fetch(ctx, c, "user:"+id, users,
//	    swrcache.Policy{TTL: time.Hour, SWR: 30 * time.Minute, AutoVersion: true},
//	    func(ctx context.Context) (User, error) { return db.LoadUser(ctx, id) })
//
// Concurrent misses for one key may all compute and all write; the last write
// wins. There is no single-flight coalescing.
package swrcache
