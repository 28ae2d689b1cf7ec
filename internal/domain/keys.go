package domain

// KeyPrefix namespaces every key notemill writes to the cache store.
const KeyPrefix = "notemill:"
