package version

// ALPNH3Protocol is the ALPN token for HTTP/3, RFC 9114 section 3.1.
const ALPNH3Protocol = "h3"
