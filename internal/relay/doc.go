// Package relay implements the incremental notification relay: resolve
// tenant configs from the property store, page backward through each
// space's notification list down to the stored watermark, deliver the
// new unread items to the tenant's webhook in chronological order, and
// advance the watermark.
package relay
