package store

import "context"

// WithSessions returns base with its session repository replaced by sessions.
// It lets the directory stay in SQL while sessions live in another backend
// such as Redis. Transactions only cover the directory.
func WithSessions(base Store, sessions Sessions, ping func(context.Context) error) Store {
	return &composite{Store: base, sessions: sessions, ping: ping}
}

type composite struct {
	Store
	sessions Sessions
	ping     func(context.Context) error
}

func (c *composite) Sessions() Sessions { return c.sessions }

func (c *composite) Ping(ctx context.Context) error {
	if err := c.Store.Ping(ctx); err != nil {
		return err
	}
	if c.ping != nil {
		return c.ping(ctx)
	}
	return nil
}

func (c *composite) Tx(ctx context.Context) (Tx, error) {
	tx, err := c.Store.Tx(ctx)
	if err != nil {
		return nil, err
	}
	return &compositeTx{inner: tx, sessions: c.sessions}, nil
}

func (c *composite) WithTx(ctx context.Context, fn func(tx Tx) error) error {
	return c.Store.WithTx(ctx, func(tx Tx) error {
		return fn(&compositeTx{inner: tx, sessions: c.sessions})
	})
}

// compositeTx forwards to the directory transaction. Sessions are outside it.
type compositeTx struct {
	inner    Tx
	sessions Sessions
}

func (t *compositeTx) Users() Users       { return t.inner.Users() }
func (t *compositeTx) Sessions() Sessions { return t.sessions }
func (t *compositeTx) Commit() error      { return t.inner.Commit() }
func (t *compositeTx) Rollback() error    { return t.inner.Rollback() }
func (t *compositeTx) Close() error       { return t.inner.Close() }

func (t *compositeTx) ApplyMigrations() error         { return t.inner.ApplyMigrations() }
func (t *compositeTx) Ping(ctx context.Context) error { return t.inner.Ping(ctx) }

func (t *compositeTx) Tx(ctx context.Context) (Tx, error) { return t.inner.Tx(ctx) }

func (t *compositeTx) WithTx(ctx context.Context, fn func(tx Tx) error) error {
	return t.inner.WithTx(ctx, fn)
}
