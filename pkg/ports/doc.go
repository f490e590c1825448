/*
Package ports defines the driven ports (interfaces) for the SmartMeal core.

These interfaces decouple the engines from external implementations, allowing
the core to work with various catalogs, tree services and storage backends.

# Key Interfaces

  - CatalogProvider: supplies ingredients and recipes (memory, files).
  - TreeProvider: exposes the decision tree via start, navigate and health (in-process or remote).
  - SessionStore: persists and loads session snapshots (memory, file, Redis, Badger).
  - DistributedLocker: serializes access to one session across replicas.

The package also ships contract suites (RunSessionStoreContract, RunTreeProviderContract)
that every adapter runs in its own tests.
*/
package ports
