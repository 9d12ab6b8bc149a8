package envvar_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/pkg/errors"

	"github.com/animalet/entorn-go/pkg/envvar"
)

var _ = Describe("Patch", func() {
	It("overrides the environment until restored", func() {
		setEnv("ENVVAR_PATCH", "live")
		v := envvar.String("ENVVAR_PATCH")
		restore := v.Patch("patched")
		Expect(v.Get()).To(Equal("patched"))
		restore()
		Expect(v.Get()).To(Equal("live"))
	})

	It("bypasses parsing, defaults and validators", func() {
		setEnv("ENVVAR_PATCH_BYPASS", "not-a-number")
		v := envvar.Int("ENVVAR_PATCH_BYPASS").
			Default(1).
			Validate(func(int) (int, error) { return 0, errors.New("should not run") })
		restore := v.Patch(7)
		defer restore()
		Expect(v.Get()).To(Equal(7))
	})

	It("restores the previous override, innermost first", func() {
		v := envvar.String("ENVVAR_PATCH_NEST")
		setEnv("ENVVAR_PATCH_NEST", "live")
		restoreOuter := v.Patch("outer")
		restoreInner := v.Patch("inner")
		Expect(v.Get()).To(Equal("inner"))
		restoreInner()
		Expect(v.Get()).To(Equal("outer"))
		restoreInner() // a second restore must not clobber the outer override
		Expect(v.Get()).To(Equal("outer"))
		restoreOuter()
		Expect(v.Get()).To(Equal("live"))
	})

	It("simulates absence with PatchMissing, beating the default", func() {
		setEnv("ENVVAR_PATCH_MISS", "live")
		v := envvar.String("ENVVAR_PATCH_MISS").Default("fallback")
		restore := v.PatchMissing()
		defer restore()
		_, err := v.Get()
		var miss *envvar.MissingError
		Expect(errors.As(err, &miss)).To(BeTrue())
		Expect(miss.Key).To(Equal("ENVVAR_PATCH_MISS"))
	})

	It("simulates a discarded value with PatchDiscard", func() {
		setEnv("ENVVAR_PATCH_DISC", "live")
		v := envvar.String("ENVVAR_PATCH_DISC")
		restore := v.PatchDiscard()
		defer restore()
		_, err := v.Get()
		Expect(errors.Is(err, envvar.ErrDiscarded)).To(BeTrue())
	})

	It("stubs out a whole schema", func() {
		srv := newServerSchema("ENVVAR_PATCH_SCHEMA_")
		restore := srv.Patch(serverConfig{Host: "stub", Port: 1})
		defer restore()
		Expect(srv.Get()).To(Equal(serverConfig{Host: "stub", Port: 1}))
	})

	It("beats extra factory values on a patched schema", func() {
		srv := newServerSchema("ENVVAR_PATCH_EXTRA_")
		restore := srv.Patch(serverConfig{Host: "stub"})
		defer restore()
		Expect(srv.GetWith(map[string]any{"Nope": 1})).To(Equal(serverConfig{Host: "stub"}))
	})

	It("does not reach the prefixed copy a schema holds", func() {
		tpl := envvar.String("HOST")
		srv := envvar.Struct[serverConfig]("ENVVAR_PATCH_TPL_", envvar.Args{
			"Host": tpl,
			"Port": envvar.Int("PORT").Default(1),
		})
		restore := tpl.Patch("patched")
		defer restore()
		Expect(tpl.Get()).To(Equal("patched"))
		_, err := srv.Get()
		var miss *envvar.MissingError
		Expect(errors.As(err, &miss)).To(BeTrue())
		Expect(miss.Key).To(Equal("ENVVAR_PATCH_TPL_HOST"))
	})
})
