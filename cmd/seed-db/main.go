// Command seed-db loads the product catalog and demo accounts into the
// database. Product files may be plain JSON or gzip-compressed; both are
// streamed, so catalog size is not bounded by memory.
package main

import (
	"context"
	"flag"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	pgzip "github.com/klauspost/pgzip"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/mivanenko/shopflow/internal/domain/catalog"
	"github.com/mivanenko/shopflow/internal/domain/user"
	"github.com/mivanenko/shopflow/internal/storage/postgres"
)

// seedWorkers bounds concurrent upserts so seeding cannot starve the pool.
const seedWorkers = 4

func main() {
	var (
		databaseURL  string
		productsFile string
		usersFile    string
	)

	flag.StringVar(&databaseURL, "database-url", "", "PostgreSQL connection URL (or DATABASE_URL env)")
	flag.StringVar(&productsFile, "products-file", "db/seed/products.json", "path to products JSON file (.gz supported)")
	flag.StringVar(&usersFile, "users-file", "", "optional path to users JSON file (.gz supported)")
	flag.Parse()

	if databaseURL == "" {
		databaseURL = os.Getenv("DATABASE_URL")
	}
	if databaseURL == "" {
		slog.Error("database URL is required: set --database-url or DATABASE_URL")
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx, databaseURL, productsFile, usersFile); err != nil {
		slog.Error("seed failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	slog.Info("seed completed successfully")
}

func run(ctx context.Context, databaseURL, productsFile, usersFile string) error {
	slog.Info("connecting to database")

	pool, err := postgres.NewPool(ctx, databaseURL)
	if err != nil {
		return errors.Wrap(err, "connect to database")
	}
	defer pool.Close()

	slog.Info("running migrations")

	if err := postgres.RunMigrations(ctx, pool); err != nil {
		return errors.Wrap(err, "run migrations")
	}

	if err := seedProducts(ctx, postgres.NewProductRepository(pool), productsFile); err != nil {
		return errors.Wrap(err, "seed products")
	}

	if usersFile != "" {
		users := user.NewService(postgres.NewUserRepository(pool))
		if err := seedUsers(ctx, users, usersFile); err != nil {
			return errors.Wrap(err, "seed users")
		}
	}

	return nil
}

// openSeedFile opens path, transparently decompressing .gz files.
func openSeedFile(path string) (io.ReadCloser, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "open %s", path)
	}
	if !strings.HasSuffix(path, ".gz") {
		return f, nil
	}

	gz, err := pgzip.NewReader(f)
	if err != nil {
		_ = f.Close()
		return nil, errors.Wrapf(err, "create gzip reader for %s", path)
	}
	return &gzReadCloser{gz: gz, f: f}, nil
}

type gzReadCloser struct {
	gz *pgzip.Reader
	f  *os.File
}

func (g *gzReadCloser) Read(p []byte) (int, error) { return g.gz.Read(p) }

func (g *gzReadCloser) Close() error {
	err := g.gz.Close()
	if cerr := g.f.Close(); err == nil {
		err = cerr
	}
	return err
}

func seedProducts(ctx context.Context, repo *postgres.ProductRepository, path string) error {
	slog.Info("reading products file", slog.String("path", path))

	f, err := openSeedFile(path)
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(seedWorkers)

	var count int
	d := jx.Decode(f, 4096)
	if err := d.Arr(func(d *jx.Decoder) error {
		if err := ctx.Err(); err != nil {
			return err
		}

		p, err := decodeProduct(d)
		if err != nil {
			return errors.Wrap(err, "decode product")
		}

		count++
		g.Go(func() error {
			return repo.Upsert(ctx, p)
		})
		return nil
	}); err != nil {
		_ = g.Wait()
		return errors.Wrap(err, "parse products JSON")
	}

	if err := g.Wait(); err != nil {
		return err
	}

	slog.Info("upserted products", slog.Int("count", count))
	return nil
}

func decodeProduct(d *jx.Decoder) (*catalog.Product, error) {
	var p catalog.Product
	if err := d.Obj(func(d *jx.Decoder, key string) error {
		var err error
		switch key {
		case "id":
			p.ID, err = d.Str()
		case "name":
			p.Name, err = d.Str()
		case "description":
			p.Description, err = d.Str()
		case "category":
			p.Category, err = d.Str()
		case "price":
			var n jx.Num
			if n, err = d.Num(); err != nil {
				return err
			}
			p.Price, err = decimal.NewFromString(n.String())
		case "stock":
			p.Stock, err = d.Int()
		default:
			err = d.Skip()
		}
		return err
	}); err != nil {
		return nil, err
	}
	return &p, nil
}

type userJSON struct {
	Name     string
	Email    string
	Password string
	Phone    string
}

func seedUsers(ctx context.Context, users *user.Service, path string) error {
	slog.Info("reading users file", slog.String("path", path))

	f, err := openSeedFile(path)
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()

	var created, skipped int
	d := jx.Decode(f, 4096)
	if err := d.Arr(func(d *jx.Decoder) error {
		u, err := decodeUser(d)
		if err != nil {
			return errors.Wrap(err, "decode user")
		}

		_, err = users.Register(ctx, user.RegisterRequest{
			Name:     u.Name,
			Email:    u.Email,
			Password: u.Password,
			Phone:    u.Phone,
		})
		switch {
		case errors.Is(err, user.ErrEmailTaken):
			// Re-running the seeder against a populated database is fine.
			skipped++
			return nil
		case err != nil:
			return errors.Wrapf(err, "register user %s", u.Email)
		}
		created++
		return nil
	}); err != nil {
		return errors.Wrap(err, "parse users JSON")
	}

	slog.Info("seeded users", slog.Int("created", created), slog.Int("skipped", skipped))
	return nil
}

func decodeUser(d *jx.Decoder) (userJSON, error) {
	var u userJSON
	err := d.Obj(func(d *jx.Decoder, key string) error {
		var err error
		switch key {
		case "name":
			u.Name, err = d.Str()
		case "email":
			u.Email, err = d.Str()
		case "password":
			u.Password, err = d.Str()
		case "phone":
			u.Phone, err = d.Str()
		default:
			err = d.Skip()
		}
		return err
	})
	return u, err
}
