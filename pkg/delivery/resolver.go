package delivery

import "strings"

// Resolver computes the handler of a line for a delivery class. Returning
// nil means the channel does not apply.
type Resolver func(c *Class) Handler

const (
	classSuffix        = "Delivery"
	namespaceSeparator = "."
)

// Placeholders understood by WithResolverPattern.
const (
	PlaceholderClass     = "{delivery_class}"
	PlaceholderNamespace = "{delivery_namespace}"
	PlaceholderName      = "{delivery_name}"
)

// splitName splits "admin.EventsDelivery" into "admin." and "Events".
func splitName(full string) (namespace, name string) {
	if i := strings.LastIndex(full, namespaceSeparator); i >= 0 {
		namespace, name = full[:i+len(namespaceSeparator)], full[i+len(namespaceSeparator):]
	} else {
		name = full
	}
	return namespace, strings.TrimSuffix(name, classSuffix)
}

// ExpandPattern substitutes the class placeholders in pattern.
func ExpandPattern(pattern, className string) string {
	namespace, name := splitName(className)
	return strings.NewReplacer(
		PlaceholderClass, className,
		PlaceholderNamespace, namespace,
		PlaceholderName, name,
	).Replace(pattern)
}

// PatternResolver resolves handlers by expanding pattern against the class
// name and looking the result up in the class catalog.
func PatternResolver(pattern string) Resolver {
	return func(c *Class) Handler {
		h, _ := c.Catalog().Lookup(ExpandPattern(pattern, c.Name()))
		return h
	}
}

// SuffixResolver maps XyzDelivery to Xyz<suffix>. Classes whose name does not
// end with Delivery resolve to nothing.
func SuffixResolver(suffix string) Resolver {
	return func(c *Class) Handler {
		name := c.Name()
		if !strings.HasSuffix(name, classSuffix) {
			return nil
		}
		h, _ := c.Catalog().Lookup(strings.TrimSuffix(name, classSuffix) + suffix)
		return h
	}
}
