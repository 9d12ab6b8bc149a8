package envvar_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/animalet/entorn-go/pkg/envvar"
)

var _ = Describe("Registry", func() {
	It("lists new variables in the default registry", func() {
		v := envvar.String("ENVVAR_REG_NEW")
		Expect(envvar.DefaultRegistry.Roots()).To(ContainElement(BeIdenticalTo(v)))
	})

	It("delists children consumed by a schema, keeping only roots", func() {
		host := envvar.String("HOST")
		port := envvar.Int("PORT")
		srv := envvar.Struct[serverConfig]("ENVVAR_REG_SRV_", envvar.Args{
			"Host": host,
			"Port": port,
		})
		roots := envvar.DefaultRegistry.Roots()
		Expect(roots).To(ContainElement(BeIdenticalTo(srv)))
		Expect(roots).NotTo(ContainElement(BeIdenticalTo(host)))
		Expect(roots).NotTo(ContainElement(BeIdenticalTo(port)))
	})

	It("moves a variable between registries with In", func() {
		r := envvar.NewRegistry()
		v := envvar.String("ENVVAR_REG_MOVE").In(r)
		Expect(r.Roots()).To(ContainElement(BeIdenticalTo(v)))
		Expect(envvar.DefaultRegistry.Roots()).NotTo(ContainElement(BeIdenticalTo(v)))
	})

	It("delists a consumed child from its own registry too", func() {
		r := envvar.NewRegistry()
		host := envvar.String("HOST").In(r)
		envvar.Struct[serverConfig]("ENVVAR_REG_OWN_", envvar.Args{
			"Host": host,
			"Port": envvar.Int("PORT"),
		})
		Expect(r.Roots()).To(BeEmpty())
	})

	It("bars an excluded variable from coming back", func() {
		r := envvar.NewRegistry()
		v := envvar.String("ENVVAR_REG_EXCL").In(r)
		r.Exclude(v)
		Expect(r.Roots()).To(BeEmpty())
		v.In(r)
		Expect(r.Roots()).To(BeEmpty())
	})

	It("keeps registration order and hands out a copy", func() {
		r := envvar.NewRegistry()
		a := envvar.String("ENVVAR_REG_A").In(r)
		b := envvar.String("ENVVAR_REG_B").In(r)
		c := envvar.String("ENVVAR_REG_C").In(r)

		roots := r.Roots()
		Expect(roots).To(HaveLen(3))
		Expect(roots[0]).To(BeIdenticalTo(a))
		Expect(roots[1]).To(BeIdenticalTo(b))
		Expect(roots[2]).To(BeIdenticalTo(c))

		roots[0] = nil
		Expect(r.Roots()[0]).To(BeIdenticalTo(a))
	})

	It("registers a prefixed copy alongside its source", func() {
		r := envvar.NewRegistry()
		v := envvar.String("NAME").In(r)
		p := v.WithPrefix("ENVVAR_REG_PFX_")
		Expect(r.Roots()).To(ContainElement(BeIdenticalTo(p)))
		Expect(r.Roots()).To(ContainElement(BeIdenticalTo(v)))
	})

	It("leaves a prefixed copy of a consumed variable unregistered", func() {
		tpl := envvar.String("HOST")
		envvar.Struct[serverConfig]("ENVVAR_REG_CONSUMED_", envvar.Args{
			"Host": tpl,
			"Port": envvar.Int("PORT"),
		})
		p := tpl.WithPrefix("X_")
		Expect(envvar.DefaultRegistry.Roots()).NotTo(ContainElement(BeIdenticalTo(p)))
	})
})
