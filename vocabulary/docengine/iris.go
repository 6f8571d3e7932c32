package docengine

// Namespace is the base IRI prefix for docengine ontology terms.
const Namespace = "https://pcforge.dev/ontology/docengine/"

// EntityNamespace is the base IRI for docengine entity instances.
const EntityNamespace = "https://pcforge.dev/entity/docengine/"
