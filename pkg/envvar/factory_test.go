package envvar_test

import (
	"fmt"
	"net/url"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/pkg/errors"

	"github.com/animalet/entorn-go/pkg/envvar"
)

var _ = Describe("Call", func() {
	It("applies positional children to the factory in order", func() {
		dsn := envvar.Call[string]("ENVVAR_DSN_",
			func(host string, port int) string {
				return fmt.Sprintf("%s:%d", host, port)
			},
			envvar.String("HOST"),
			envvar.Int("PORT"),
		)
		setEnv("ENVVAR_DSN_HOST", "db")
		setEnv("ENVVAR_DSN_PORT", "5432")
		Expect(dsn.Get()).To(Equal("db:5432"))
	})

	It("surfaces an error returned by the factory", func() {
		u := envvar.Call[*url.URL]("ENVVAR_CALLERR_",
			func(raw string) (*url.URL, error) {
				return nil, errors.Errorf("cannot use %q", raw)
			},
			envvar.String("URL"),
		)
		setEnv("ENVVAR_CALLERR_URL", "nope")
		_, err := u.Get()
		Expect(err).To(MatchError(`cannot use "nope"`))
	})

	It("fails resolution when discarding breaks the factory arity", func() {
		sum := envvar.Call[int]("ENVVAR_ARITY_",
			func(a, b int) int { return a + b },
			envvar.Int("A").DefaultDiscard(),
			envvar.Int("B"),
		)
		setEnv("ENVVAR_ARITY_B", "2")
		_, err := sum.Get()
		Expect(err).To(MatchError(ContainSubstring("after discarding")))
	})

	It("rejects extra factory values, which have no parameter to land in", func() {
		double := envvar.Call[int]("ENVVAR_CALLKW_",
			func(n int) int { return n * 2 },
			envvar.Int("N"),
		)
		setEnv("ENVVAR_CALLKW_N", "4")
		_, err := double.GetWith(map[string]any{"n": 8})
		Expect(err).To(MatchError(ContainSubstring("no keyword values")))
	})
})

var _ = Describe("construction", func() {
	It("panics on a leaf without a parser", func() {
		Expect(func() {
			envvar.New[string]("ENVVAR_NOPARSER", nil)
		}).To(PanicWith(MatchError(ContainSubstring("without a parser"))))
	})

	It("panics on a nil default factory", func() {
		Expect(func() {
			envvar.String("ENVVAR_NILDEF").DefaultFactory(nil)
		}).To(PanicWith(MatchError(ContainSubstring("nil default factory"))))
	})

	It("panics on a nil validator", func() {
		Expect(func() {
			envvar.String("ENVVAR_NILVAL").Validate(nil)
		}).To(PanicWith(MatchError(ContainSubstring("nil validator"))))
	})

	It("panics when the schema type is not a struct", func() {
		Expect(func() {
			envvar.Struct[int]("ENVVAR_NOTSTRUCT_", envvar.Args{})
		}).To(PanicWith(MatchError(ContainSubstring("not a struct"))))
	})

	It("panics on a keyword no factory parameter declares", func() {
		Expect(func() {
			envvar.Struct[serverConfig]("ENVVAR_BADKW_", envvar.Args{
				"Host":   envvar.String("HOST"),
				"Port":   envvar.Int("PORT"),
				"Shards": envvar.Int("SHARDS"),
			})
		}).To(PanicWith(MatchError(ContainSubstring(`no parameter "Shards"`))))
	})

	It("panics when two keywords reach the same factory parameter", func() {
		Expect(func() {
			envvar.Struct[cacheConfig]("ENVVAR_DUPKW_", envvar.Args{
				"EXPIRY": envvar.Duration("EXPIRY"),
				"TTL":    envvar.Duration("TTL"),
			})
		}).To(PanicWith(MatchError(ContainSubstring(`parameter "EXPIRY" twice`))))
	})

	It("panics when one child instance fills two slots", func() {
		shared := envvar.String("SHARED")
		Expect(func() {
			envvar.Struct[serverConfig]("ENVVAR_SHARED_", envvar.Args{
				"Host": shared,
				"Port": shared,
			})
		}).To(PanicWith(MatchError(ContainSubstring("same child variable twice"))))
	})

	It("panics on a nil child", func() {
		Expect(func() {
			envvar.Struct[serverConfig]("ENVVAR_NILCHILD_", envvar.Args{
				"Host": nil,
			})
		}).To(PanicWith(MatchError(ContainSubstring("nil child"))))
	})

	It("panics on a child that is not a variable", func() {
		Expect(func() {
			envvar.Struct[serverConfig]("ENVVAR_RAWCHILD_", envvar.Args{
				"Port": 8080,
			})
		}).To(PanicWith(MatchError(ContainSubstring("must be a variable"))))
	})

	It("panics on OnPartialAsDefault without a default to fall back to", func() {
		Expect(func() {
			envvar.Struct[serverConfig]("ENVVAR_OPADNODEF_", envvar.Args{
				"Host": envvar.String("HOST"),
				"Port": envvar.Int("PORT"),
			}).OnPartialAsDefault()
		}).To(PanicWith(MatchError(ContainSubstring("without a default"))))
	})

	It("panics when the factory is not a function", func() {
		Expect(func() {
			envvar.Call[int]("ENVVAR_NOTFUNC_", 42)
		}).To(PanicWith(MatchError(ContainSubstring("must be a function"))))
	})

	It("panics when the factory returns nothing", func() {
		Expect(func() {
			envvar.Call[int]("ENVVAR_NORET_", func(int) {}, envvar.Int("N"))
		}).To(PanicWith(MatchError(ContainSubstring("must return a value"))))
	})

	It("panics when the factory's second return is not an error", func() {
		Expect(func() {
			envvar.Call[int]("ENVVAR_BADERR_", func(int) (int, string) { return 0, "" }, envvar.Int("N"))
		}).To(PanicWith(MatchError(ContainSubstring("second return must be error"))))
	})

	It("panics when the factory's return is not assignable to the schema type", func() {
		Expect(func() {
			envvar.Call[string]("ENVVAR_BADOUT_", func(n int) int { return n }, envvar.Int("N"))
		}).To(PanicWith(MatchError(ContainSubstring("returns int, want string"))))
	})

	It("panics when the child count does not match the factory arity", func() {
		Expect(func() {
			envvar.Call[int]("ENVVAR_BADARITY_", func(a, b int) int { return a + b }, envvar.Int("A"))
		}).To(PanicWith(MatchError(ContainSubstring("positional values"))))
	})

	It("panics when required variadic children are missing", func() {
		Expect(func() {
			envvar.Call[string]("ENVVAR_BADVARIADIC_", func(first string, rest ...string) string { return first })
		}).To(PanicWith(MatchError(ContainSubstring("at least 1 positional"))))
	})

	It("panics on a map schema without children", func() {
		Expect(func() {
			envvar.Map("ENVVAR_EMPTYMAP_", nil)
		}).To(PanicWith(MatchError(ContainSubstring("without children"))))
	})
})
