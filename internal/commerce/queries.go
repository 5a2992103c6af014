package commerce

const productFields = `
        id
        sku
        name
        stock_status
        only_x_left_in_stock
        rating_summary
        brand
        categories { name }
        small_image { url }
        price_range {
          minimum_price {
            regular_price {
              value
              currency
            }
          }
        }`

const queryProducts = `
  query Products($search: String, $filter: ProductAttributeFilterInput, $pageSize: Int) {
    products(search: $search, filter: $filter, pageSize: $pageSize) {
      items {` + productFields + `
      }
    }
  }`

const querySearchSuggestions = `
  query SearchSuggestions($search: String!) {
    products(search: $search, pageSize: 8) {
      items {` + productFields + `
      }
    }
  }`

const queryCategories = `
  query Categories {
    categories {
      items {
        id
        name
        description
      }
    }
  }`

const cartFields = `
      id
      items {
        uid
        quantity
        product {
          id
          sku
          name
        }
      }
      total_quantity
      prices {
        grand_total {
          value
          currency
        }
      }`

const mutationCreateEmptyCart = `
  mutation CreateEmptyCart {
    createEmptyCart
  }`

const mutationAddProductToCart = `
  mutation AddProductToCart($cartId: String!, $sku: String!, $quantity: Float!) {
    addProductsToCart(cartId: $cartId, cartItems: [{ sku: $sku, quantity: $quantity }]) {
      cart {` + cartFields + `
      }
      user_errors {
        code
        message
      }
    }
  }`

const mutationUpdateCartItem = `
  mutation UpdateCartItem($cartId: String!, $cartItemUid: ID!, $quantity: Float!) {
    updateCartItems(input: { cart_id: $cartId, cart_items: [{ cart_item_uid: $cartItemUid, quantity: $quantity }] }) {
      cart {` + cartFields + `
      }
    }
  }`

const mutationRemoveCartItem = `
  mutation RemoveCartItem($cartId: String!, $cartItemUid: ID!) {
    removeItemFromCart(input: { cart_id: $cartId, cart_item_uid: $cartItemUid }) {
      cart {` + cartFields + `
      }
    }
  }`

const queryCart = `
  query Cart($cartId: String!) {
    cart(cart_id: $cartId) {` + cartFields + `
    }
  }`

const mutationSetShippingAddress = `
  mutation SetShippingAddress($cartId: String!, $firstname: String!, $lastname: String!, $street: String!, $telephone: String!) {
    setShippingAddressesOnCart(input: {
      cart_id: $cartId
      shipping_addresses: [{
        address: {
          firstname: $firstname
          lastname: $lastname
          street: [$street]
          city: "-"
          country_code: "US"
          telephone: $telephone
          save_in_address_book: false
        }
      }]
    }) {
      cart { id }
    }
  }`

const mutationSetBillingAddress = `
  mutation SetBillingAddress($cartId: String!) {
    setBillingAddressOnCart(input: { cart_id: $cartId, billing_address: { same_as_shipping: true } }) {
      cart { id }
    }
  }`

const mutationSetShippingMethod = `
  mutation SetShippingMethod($cartId: String!, $carrierCode: String!, $methodCode: String!) {
    setShippingMethodsOnCart(input: {
      cart_id: $cartId
      shipping_methods: [{ carrier_code: $carrierCode, method_code: $methodCode }]
    }) {
      cart { id }
    }
  }`

const mutationSetPaymentMethod = `
  mutation SetPaymentMethod($cartId: String!, $code: String!) {
    setPaymentMethodOnCart(input: { cart_id: $cartId, payment_method: { code: $code } }) {
      cart { id }
    }
  }`

const queryCheckoutMethods = `
  query CheckoutMethods($cartId: String!) {
    cart(cart_id: $cartId) {
      available_payment_methods {
        code
        title
      }
      shipping_addresses {
        available_shipping_methods {
          carrier_code
          method_code
          method_title
        }
      }
    }
  }`

const mutationPlaceOrder = `
  mutation PlaceOrder($cartId: String!) {
    placeOrder(input: { cart_id: $cartId }) {
      order {
        order_number
      }
    }
  }`

const orderFields = `
        number
        status
        order_date
        total {
          grand_total {
            value
            currency
          }
        }
        items {
          product_sku
          product_name
          quantity_ordered
        }`

const queryOrder = `
  query Order($number: String!) {
    customer {
      orders(filter: { number: { eq: $number } }) {
        items {` + orderFields + `
        }
      }
    }
  }`

const queryCustomerOrders = `
  query CustomerOrders {
    customer {
      orders(pageSize: 20) {
        items {` + orderFields + `
        }
      }
    }
  }`

const mutationGenerateCustomerToken = `
  mutation GenerateCustomerToken($email: String!, $password: String!) {
    generateCustomerToken(email: $email, password: $password) {
      token
    }
  }`

const mutationRevokeCustomerToken = `
  mutation RevokeCustomerToken {
    revokeCustomerToken {
      result
    }
  }`

const mutationCreateCustomer = `
  mutation CreateCustomer($firstname: String!, $lastname: String!, $email: String!, $password: String!) {
    createCustomerV2(input: { firstname: $firstname, lastname: $lastname, email: $email, password: $password }) {
      customer {
        firstname
        lastname
        email
      }
    }
  }`

const mutationRequestPasswordReset = `
  mutation RequestPasswordReset($email: String!) {
    requestPasswordResetEmail(email: $email)
  }`

const queryCustomer = `
  query Customer {
    customer {
      firstname
      lastname
      email
      addresses {
        id
        firstname
        lastname
        street
        telephone
        default_shipping
      }
    }
  }`

const wishlistFields = `
      id
      items_count
      items_v2 {
        items {
          id
          product {` + productFields + `
          }
        }
      }`

const queryWishlist = `
  query Wishlist {
    customer {
      wishlists {` + wishlistFields + `
      }
    }
  }`

const mutationAddToWishlist = `
  mutation AddToWishlist($wishlistId: ID!, $sku: String!) {
    addProductsToWishlist(wishlistId: $wishlistId, wishlistItems: [{ sku: $sku, quantity: 1 }]) {
      wishlist {` + wishlistFields + `
      }
    }
  }`

const mutationRemoveFromWishlist = `
  mutation RemoveFromWishlist($wishlistId: ID!, $itemId: ID!) {
    removeProductsFromWishlist(wishlistId: $wishlistId, wishlistItemsIds: [$itemId]) {
      wishlist {` + wishlistFields + `
      }
    }
  }`
