package envvar_test

import (
	"net"
	"strings"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/pkg/errors"

	"github.com/animalet/entorn-go/pkg/envvar"
)

type inferredCache struct {
	Host   string
	Port   int           `default:"6379"`
	TTL    time.Duration `env:"EXPIRY" default:"1h"`
	Secret string        `env:"-"`
}

var _ = Describe("inference", func() {
	Describe("whole-struct inference", func() {
		It("derives a child per exported field", func() {
			sch := envvar.Struct[inferredCache]("ENVVAR_INF_", nil)
			Expect(sch.Children()).To(HaveLen(3))

			setEnv("ENVVAR_INF_HOST", "cache.internal")
			Expect(sch.Get()).To(Equal(inferredCache{
				Host: "cache.internal",
				Port: 6379,
				TTL:  time.Hour,
			}))
		})

		It("lets the environment override a default tag", func() {
			sch := envvar.Struct[inferredCache]("ENVVAR_INFOVR_", nil)
			setEnv("ENVVAR_INFOVR_HOST", "h")
			setEnv("ENVVAR_INFOVR_PORT", "11211")
			setEnv("ENVVAR_INFOVR_EXPIRY", "45s")
			Expect(sch.Get()).To(Equal(inferredCache{
				Host: "h",
				Port: 11211,
				TTL:  45 * time.Second,
			}))
		})

		It("fails when an untagged field is absent", func() {
			sch := envvar.Struct[inferredCache]("ENVVAR_INFMISS_", nil)
			_, err := sch.Get()
			var miss *envvar.MissingError
			Expect(errors.As(err, &miss)).To(BeTrue())
			Expect(strings.EqualFold(miss.Key, "ENVVAR_INFMISS_HOST")).To(BeTrue())
		})

		It("parses a field through its TextUnmarshaler implementation", func() {
			type netConfig struct {
				Addr net.IP
			}
			sch := envvar.Struct[netConfig]("ENVVAR_NET_", nil)
			setEnv("ENVVAR_NET_ADDR", "127.0.0.1")
			out, err := sch.Get()
			Expect(err).NotTo(HaveOccurred())
			Expect(out.Addr.String()).To(Equal("127.0.0.1"))
		})
	})

	Describe("Auto placeholders", func() {
		It("binds the key, parser and default from the field", func() {
			sch := envvar.Struct[inferredCache]("ENVVAR_AUTO_", envvar.Args{
				"Host": envvar.Auto(),
				"Port": envvar.Auto(),
				"TTL":  envvar.Auto(),
			})
			setEnv("ENVVAR_AUTO_HOST", "h")
			Expect(sch.Get()).To(Equal(inferredCache{Host: "h", Port: 6379, TTL: time.Hour}))
		})

		It("prefers an explicit key over the field name", func() {
			sch := envvar.Struct[serverConfig]("ENVVAR_AUTOKEY_", envvar.Args{
				"Host": envvar.Auto().Key("HOSTNAME"),
				"Port": envvar.Int("PORT"),
			})
			setEnv("ENVVAR_AUTOKEY_HOSTNAME", "renamed")
			setEnv("ENVVAR_AUTOKEY_PORT", "80")
			Expect(sch.Get()).To(Equal(serverConfig{Host: "renamed", Port: 80}))
		})

		It("prefers an explicit default over the default tag", func() {
			sch := envvar.Struct[inferredCache]("ENVVAR_AUTODEF_", envvar.Args{
				"Host": envvar.Auto().Default("pinned"),
				"Port": envvar.Auto(),
				"TTL":  envvar.Auto(),
			})
			Expect(sch.Get()).To(Equal(inferredCache{Host: "pinned", Port: 6379, TTL: time.Hour}))
		})

		It("drops the default tag under NoDefault", func() {
			sch := envvar.Struct[inferredCache]("ENVVAR_NODEF_", envvar.Args{
				"Host": envvar.Auto().Default("h"),
				"Port": envvar.Auto().NoDefault(),
				"TTL":  envvar.Auto(),
			})
			_, err := sch.Get()
			var miss *envvar.MissingError
			Expect(errors.As(err, &miss)).To(BeTrue())
			Expect(strings.EqualFold(miss.Key, "ENVVAR_NODEF_PORT")).To(BeTrue())
		})

		It("applies chained validators to the bound child", func() {
			sch := envvar.Struct[serverConfig]("ENVVAR_AUTOVAL_", envvar.Args{
				"Host": envvar.Auto().Validate(func(v any) (any, error) {
					return strings.ToLower(v.(string)), nil
				}),
				"Port": envvar.Int("PORT").Default(1),
			})
			setEnv("ENVVAR_AUTOVAL_HOST", "LOUD")
			Expect(sch.Get()).To(Equal(serverConfig{Host: "loud", Port: 1}))
		})

		It("binds a positional placeholder given an explicit key", func() {
			double := envvar.Call[int]("ENVVAR_CALLAUTO_",
				func(n int) int { return n * 2 },
				envvar.Auto().Key("N"),
			)
			setEnv("ENVVAR_CALLAUTO_N", "21")
			Expect(double.Get()).To(Equal(42))
		})

		It("panics on a positional placeholder without a key", func() {
			Expect(func() {
				envvar.Call[int]("ENVVAR_CALLNOKEY_", func(n int) int { return n }, envvar.Auto())
			}).To(PanicWith(MatchError(ContainSubstring("cannot infer a key"))))
		})

		It("panics inside a map schema, which offers no type to infer", func() {
			Expect(func() {
				envvar.Map("ENVVAR_MAPAUTO_", envvar.Args{"free": envvar.Auto()})
			}).To(PanicWith(MatchError(ContainSubstring("cannot infer a type"))))
		})

		It("panics on an unparsable default tag", func() {
			type broken struct {
				N int `default:"many"`
			}
			Expect(func() {
				envvar.Struct[broken]("ENVVAR_BADTAG_", nil)
			}).To(PanicWith(MatchError(ContainSubstring("default tag"))))
		})

		It("panics on a field type no parser can be derived for", func() {
			type unparsable struct {
				C chan int
			}
			Expect(func() {
				envvar.Struct[unparsable]("ENVVAR_BADTYPE_", nil)
			}).To(PanicWith(MatchError(ContainSubstring("no parser known"))))
		})
	})
})
