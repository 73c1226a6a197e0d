package pipeline

// DefaultStages is the canonical stage sequence: checkout, install,
// test, build, authenticate, publish. Each stage gates the next.
func DefaultStages(source, defaultImage string, builder ImageBuilder, registry RegistryClient, creds CredentialSource) []Stage {
	return []Stage{
		NewCheckout(source, defaultImage),
		NewInstall(),
		NewTest(),
		NewBuild(builder),
		NewAuthenticate(registry, creds),
		NewPublish(registry),
	}
}
